// Package session is the conversation state machine of the bot: it turns one
// inbound event into OCR, cache and generation calls and the messages that
// answer it.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"documind-bot/api/internal/llm"
	"documind-bot/api/internal/render"
	"documind-bot/api/internal/store"
)

// Messenger is the subset of the chat transport the controller needs.
// Implementations return render.ErrMarkup when formatted text is rejected.
type Messenger interface {
	Send(ctx context.Context, chatID int64, m render.Message) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, m render.Message) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	SendDocument(ctx context.Context, chatID int64, f render.File) (int, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
	FetchPhoto(ctx context.Context, fileID string) ([]byte, error)
}

// TextExtractor reports recognized text or its absence, never an error.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, bool)
}

// TextGenerator always produces text; failures become a fixed fallback.
type TextGenerator interface {
	Generate(ctx context.Context, text string, p llm.Profile) string
}

type ProfileLookup interface {
	Lookup(action string) llm.Profile
}

type Deps struct {
	OCR       TextExtractor
	LLM       TextGenerator
	Profiles  ProfileLookup
	Cache     store.TextCache
	Messenger Messenger
	Renderer  *render.Renderer
	Now       func() time.Time
	Log       zerolog.Logger
}

type Controller struct {
	ocr      TextExtractor
	llm      TextGenerator
	profiles ProfileLookup
	cache    store.TextCache
	msgr     Messenger
	render   *render.Renderer
	now      func() time.Time
	log      zerolog.Logger
}

func New(d Deps) *Controller {
	if d.Renderer == nil {
		d.Renderer = render.New(render.DefaultThreshold)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Controller{
		ocr:      d.OCR,
		llm:      d.LLM,
		profiles: d.Profiles,
		cache:    d.Cache,
		msgr:     d.Messenger,
		render:   d.Renderer,
		now:      d.Now,
		log:      d.Log.With().Str("component", "session").Logger(),
	}
}

// Result describes the transition an event caused.
type Result struct {
	Kind EventKind
	From State
	To   State
	Took time.Duration
}

// Handle runs one event to completion. Recoverable failures (no text, expired
// session, generation errors, markup errors) are answered in the chat and do
// not produce an error; the returned error is for failures the user may not
// have been told about.
func (c *Controller) Handle(ctx context.Context, ev Event) (Result, error) {
	start := c.now()
	in := input{Event: ev}
	from := Idle

	if ev.Kind == EventAction {
		if ev.CallbackID != "" {
			if err := c.msgr.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
				c.log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("answer callback failed")
			}
		}
		if doc, ok := c.lookup(ctx, ev.ChatID, ev.MessageID); ok {
			in.doc = doc
			from = AwaitingMenuAction
		}
	}

	h, ok := transitions[from][ev.Kind]
	if !ok {
		return Result{Kind: ev.Kind, From: from, To: from}, fmt.Errorf("no transition for %s in state %s", ev.Kind, from)
	}
	to, err := h(c, ctx, in)
	res := Result{Kind: ev.Kind, From: from, To: to, Took: c.now().Sub(start)}

	lvl := zerolog.InfoLevel
	if err != nil {
		lvl = zerolog.ErrorLevel
	}
	c.log.WithLevel(lvl).Err(err).
		Int64("chat_id", ev.ChatID).
		Str("event", ev.Kind.String()).
		Str("action", string(ev.Action)).
		Str("from", from.String()).
		Str("to", to.String()).
		Dur("took", res.Took).
		Msg("event handled")
	return res, err
}

func (c *Controller) lookup(ctx context.Context, chatID int64, messageID int) (store.Entry, bool) {
	if messageID == 0 {
		return store.Entry{}, false
	}
	doc, err := c.cache.Get(ctx, chatID, messageID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("cache read failed")
		}
		return store.Entry{}, false
	}
	return doc, true
}

func (c *Controller) remember(ctx context.Context, chatID int64, messageID int, text string) {
	if err := c.cache.Put(ctx, chatID, messageID, text); err != nil {
		c.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("cache write failed")
	}
}

func (c *Controller) start(ctx context.Context, in input) (State, error) {
	_, err := c.send(ctx, in.ChatID, markdown(textWelcome))
	return Idle, err
}

func (c *Controller) clear(ctx context.Context, in input) (State, error) {
	_, err := c.send(ctx, in.ChatID, markdown(textCleared))
	return Idle, err
}

func (c *Controller) unrecognized(ctx context.Context, in input) (State, error) {
	_, err := c.send(ctx, in.ChatID, markdown(textOnlyPhotos))
	return Idle, err
}

// photo: status message, OCR, main menu with the text, cache under the menu message.
func (c *Controller) photo(ctx context.Context, in input) (State, error) {
	text, ok, err := c.recognize(ctx, in.Event)
	if !ok {
		return Idle, err
	}

	resp := c.render.RenderWith(text, render.MainMenu(), render.Options{
		Caption: textFoundCaption,
		Footer:  textWhatNext,
		Code:    true,
	})
	menuID, err := c.deliver(ctx, in.ChatID, resp)
	if err != nil {
		return Idle, err
	}
	c.remember(ctx, in.ChatID, menuID, text)
	return AwaitingMenuAction, nil
}

// direct answers the caption right away; the result message carries the menu
// and becomes the cache key.
func (c *Controller) direct(ctx context.Context, in input) (State, error) {
	text, ok, err := c.recognize(ctx, in.Event)
	if !ok {
		return Idle, err
	}

	p := llm.CaptionProfile(in.Caption)
	out := c.llm.Generate(ctx, text, p)
	menuID, err := c.deliver(ctx, in.ChatID, c.render.Render(out, render.DirectMenu(), p.Title))
	if err != nil {
		return Idle, err
	}
	c.remember(ctx, in.ChatID, menuID, text)
	return AwaitingMenuAction, nil
}

// recognize downloads and OCRs the photo of ev. When it reports false the user
// has already been told why.
func (c *Controller) recognize(ctx context.Context, ev Event) (string, bool, error) {
	statusID, err := c.send(ctx, ev.ChatID, render.Message{Text: textLooking})
	if err != nil {
		c.log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("status message failed")
	}
	dropStatus := func() {
		if statusID != 0 {
			c.deleteQuietly(ctx, ev.ChatID, statusID)
		}
	}

	img, err := c.msgr.FetchPhoto(ctx, ev.FileID)
	if err != nil {
		c.log.Error().Err(err).Int64("chat_id", ev.ChatID).Msg("fetch photo failed")
		dropStatus()
		_, err = c.send(ctx, ev.ChatID, render.Message{Text: textFetchFailed})
		return "", false, err
	}

	text, ok := c.ocr.ExtractText(ctx, img)
	dropStatus()
	if !ok {
		_, err = c.send(ctx, ev.ChatID, markdown(textNoText))
		return "", false, err
	}
	return text, true, nil
}

// staleAction handles a button whose message has no cached text.
func (c *Controller) staleAction(ctx context.Context, in input) (State, error) {
	if in.Action == NewScan {
		return c.newScan(ctx, in)
	}
	_, err := c.send(ctx, in.ChatID, markdown(textExpired))
	return Idle, err
}

func (c *Controller) menuAction(ctx context.Context, in input) (State, error) {
	switch {
	case in.Action == NewScan:
		return c.newScan(ctx, in)
	case in.Action == ShowMenu:
		return c.showMenu(ctx, in)
	case in.Action.Generates():
		return c.generate(ctx, in)
	}
	_, err := c.send(ctx, in.ChatID, markdown(textExpired))
	return Idle, err
}

// newScan deletes the menu-bearing message and confirms, whatever the cache holds.
func (c *Controller) newScan(ctx context.Context, in input) (State, error) {
	c.deleteQuietly(ctx, in.ChatID, in.MessageID)
	_, err := c.send(ctx, in.ChatID, markdown(textCleared))
	return Idle, err
}

// showMenu puts the original text and the main menu back into the message.
// Long text is delivered again as a file: in direct mode it was never sent,
// and in menu mode the earlier file may be far up the chat.
func (c *Controller) showMenu(ctx context.Context, in input) (State, error) {
	resp := c.render.RenderWith(in.doc.Text, render.MainMenu(), render.Options{
		Caption: textOriginal,
		Footer:  textWhatNext,
		Code:    true,
	})
	if resp.File != nil {
		if _, err := c.msgr.SendDocument(ctx, in.ChatID, *resp.File); err != nil {
			return AwaitingMenuAction, fmt.Errorf("send original file: %w", err)
		}
	}
	return AwaitingMenuAction, c.edit(ctx, in.ChatID, in.MessageID, resp.Message)
}

// generate edits a placeholder into the menu message, runs the profile for
// the action and replaces the placeholder with the result. The menu message
// stays the cache key.
func (c *Controller) generate(ctx context.Context, in input) (State, error) {
	if err := c.edit(ctx, in.ChatID, in.MessageID, markdown(textAnalyzing)); err != nil {
		c.log.Warn().Err(err).Int64("chat_id", in.ChatID).Msg("placeholder edit failed")
	}

	p := c.profiles.Lookup(string(in.Action))
	out := c.llm.Generate(ctx, in.doc.Text, p)

	resp := c.render.Render(out, render.BackMenu(), p.Title)
	if resp.Inline() {
		return AwaitingMenuAction, c.edit(ctx, in.ChatID, in.MessageID, resp.Message)
	}
	if _, err := c.msgr.SendDocument(ctx, in.ChatID, *resp.File); err != nil {
		return AwaitingMenuAction, fmt.Errorf("send result file: %w", err)
	}
	companion := resp.Message
	companion.Menu = render.DetailMenu()
	return AwaitingMenuAction, c.edit(ctx, in.ChatID, in.MessageID, companion)
}

// deliver sends a rendered response and returns the id of the message that
// carries the menu.
func (c *Controller) deliver(ctx context.Context, chatID int64, resp render.Response) (int, error) {
	if resp.File != nil {
		if _, err := c.msgr.SendDocument(ctx, chatID, *resp.File); err != nil {
			return 0, fmt.Errorf("send file: %w", err)
		}
	}
	return c.send(ctx, chatID, resp.Message)
}

// send delivers m, falling back to one unformatted resend when the markup is rejected.
func (c *Controller) send(ctx context.Context, chatID int64, m render.Message) (int, error) {
	id, err := c.msgr.Send(ctx, chatID, m)
	if errors.Is(err, render.ErrMarkup) && m.ParseMode != render.ModePlain {
		c.log.Warn().Err(err).Int64("chat_id", chatID).Msg("markup rejected, resending as plain text")
		id, err = c.msgr.Send(ctx, chatID, render.Plain(m))
	}
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return id, nil
}

func (c *Controller) edit(ctx context.Context, chatID int64, messageID int, m render.Message) error {
	err := c.msgr.Edit(ctx, chatID, messageID, m)
	if errors.Is(err, render.ErrMarkup) && m.ParseMode != render.ModePlain {
		c.log.Warn().Err(err).Int64("chat_id", chatID).Msg("markup rejected, editing as plain text")
		err = c.msgr.Edit(ctx, chatID, messageID, render.Plain(m))
	}
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func (c *Controller) deleteQuietly(ctx context.Context, chatID int64, messageID int) {
	if err := c.msgr.Delete(ctx, chatID, messageID); err != nil {
		c.log.Warn().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("delete message failed")
	}
}

func markdown(text string) render.Message {
	return render.Message{Text: text, ParseMode: render.ModeMarkdown}
}
