// Package render turns text into Telegram-ready responses: inline messages
// for short text, a text file plus a companion message for long text.
package render

import (
	"errors"
	"regexp"
	"strings"

	"documind-bot/api/internal/util"
)

const (
	ModeMarkdown = "Markdown"
	ModePlain    = ""

	DefaultThreshold = 3000
	DefaultFileName  = "document.txt"

	// MaxMessageLen is Telegram's limit for a text message, in UTF-16 units.
	MaxMessageLen = 4096
)

// ErrMarkup is returned by a transport when Telegram could not parse the
// message entities.
var ErrMarkup = errors.New("markup could not be parsed")

const WarningSuffix = "\n\n⚠️ Formatting was disabled for this message."

type Message struct {
	Text      string
	ParseMode string
	Menu      Menu
}

type File struct {
	Name    string
	Data    []byte
	Caption string
}

// Response is either an inline Message, or a File followed by a companion
// Message that carries the menu.
type Response struct {
	File    *File
	Message Message
}

func (r Response) Inline() bool { return r.File == nil }

// Options control how the body is laid out.
type Options struct {
	Caption string // printed above the text
	Footer  string // printed below the text, inline only
	Code    bool   // wrap the text in a code span, no down-leveling
}

type Renderer struct {
	threshold int
	fileName  string
}

func New(threshold int) *Renderer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Renderer{threshold: threshold, fileName: DefaultFileName}
}

// Fits reports whether text is short enough to be sent inline.
func (r *Renderer) Fits(text string) bool { return util.TelegramLen(text) <= r.threshold }

func (r *Renderer) Render(text string, menu Menu, caption string) Response {
	return r.RenderWith(text, menu, Options{Caption: caption})
}

func (r *Renderer) RenderWith(text string, menu Menu, o Options) Response {
	caption := DownlevelMarkdown(o.Caption)
	if r.Fits(text) {
		var body string
		if o.Code {
			body = "`" + text + "`"
		} else {
			body = DownlevelMarkdown(text)
		}
		msg := Message{
			Text:      joinNonEmpty(caption, body, DownlevelMarkdown(o.Footer)),
			ParseMode: ModeMarkdown,
			Menu:      menu,
		}
		// caption, footer and the warning of a plain resend come on top of the text
		if util.TelegramLen(msg.Text)+util.TelegramLen(WarningSuffix) <= MaxMessageLen {
			return Response{Message: msg}
		}
	}

	fileCaption := caption
	if fileCaption == "" {
		fileCaption = "📎 Full text"
	}
	return Response{
		File: &File{Name: r.fileName, Data: []byte(text), Caption: fileCaption},
		Message: Message{
			Text:      joinNonEmpty(caption, OverflowNote),
			ParseMode: ModeMarkdown,
			Menu:      menu,
		},
	}
}

// OverflowNote replaces the text in the companion message of a file response.
// The file may land before or after the companion, so it names no direction.
const OverflowNote = "📎 The text is too long for a message, it was sent as a separate file."

// Plain is the unformatted resend of m after a markup failure.
func Plain(m Message) Message {
	m.ParseMode = ModePlain
	m.Text += WarningSuffix
	return m
}

var (
	reDoubleStar  = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	reDoubleUnder = regexp.MustCompile(`__([^_\n]+?)__`)
	reHeading     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t]*$`)
	reStarBullet  = regexp.MustCompile(`(?m)^([ \t]*)\*[ \t]+`)
)

// DownlevelMarkdown rewrites the markdown models tend to produce into the
// single-delimiter legacy style Telegram accepts: **x** becomes *x*, __x__
// becomes _x_, headings become bold lines and "* " bullets become "• ".
func DownlevelMarkdown(s string) string {
	if s == "" {
		return s
	}
	s = reDoubleStar.ReplaceAllString(s, "*$1*")
	s = reDoubleUnder.ReplaceAllString(s, "_${1}_")
	s = reHeading.ReplaceAllString(s, "*$1*")
	s = reStarBullet.ReplaceAllString(s, "$1• ")
	return s
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
