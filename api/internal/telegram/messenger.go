package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"documind-bot/api/internal/render"
)

// MaxPhotoBytes caps photo downloads; Telegram bots cannot fetch more than 20 MB.
const MaxPhotoBytes = 20 << 20

// Messenger implements session.Messenger on top of the Bot API.
type Messenger struct {
	bot          *tgbotapi.BotAPI
	httpc        *http.Client
	fileEndpoint string
	maxPhoto     int64
}

func NewMessenger(bot *tgbotapi.BotAPI) *Messenger {
	return &Messenger{
		bot:          bot,
		httpc:        &http.Client{Timeout: 60 * time.Second},
		fileEndpoint: tgbotapi.FileEndpoint,
		maxPhoto:     MaxPhotoBytes,
	}
}

func (m *Messenger) Send(ctx context.Context, chatID int64, msg render.Message) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.ParseMode = msg.ParseMode
	if kb, ok := keyboard(msg.Menu); ok {
		cfg.ReplyMarkup = kb
	}
	sent, err := m.bot.Send(cfg)
	if err != nil {
		return 0, classify(err)
	}
	return sent.MessageID, nil
}

// Edit replaces text and keyboard of a message; an empty menu removes the keyboard.
func (m *Messenger) Edit(ctx context.Context, chatID int64, messageID int, msg render.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, msg.Text)
	cfg.ParseMode = msg.ParseMode
	if kb, ok := keyboard(msg.Menu); ok {
		cfg.ReplyMarkup = &kb
	}
	if _, err := m.bot.Request(cfg); err != nil {
		if isNotModified(err) {
			return nil
		}
		return classify(err)
	}
	return nil
}

func (m *Messenger) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// SendDocument uploads f; a caption Telegram cannot parse is resent unformatted
// with the warning suffix.
func (m *Messenger) SendDocument(ctx context.Context, chatID int64, f render.File) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: f.Name, Bytes: f.Data})
	doc.Caption = f.Caption
	doc.ParseMode = render.ModeMarkdown
	sent, err := m.bot.Send(doc)
	if err != nil && isMarkdownParseError(err) {
		doc.ParseMode = render.ModePlain
		doc.Caption += render.WarningSuffix
		sent, err = m.bot.Send(doc)
	}
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (m *Messenger) FetchPhoto(ctx context.Context, fileID string) ([]byte, error) {
	file, err := m.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if int64(file.FileSize) > m.maxPhoto {
		return nil, fmt.Errorf("photo too large: %d bytes", file.FileSize)
	}
	url := fmt.Sprintf(m.fileEndpoint, m.bot.Token, file.FilePath)
	return m.download(ctx, url)
}

func (m *Messenger) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("download photo: status %d: %s", resp.StatusCode, string(b))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, m.maxPhoto+1))
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	if int64(len(b)) > m.maxPhoto {
		return nil, fmt.Errorf("photo too large: more than %d bytes", m.maxPhoto)
	}
	return b, nil
}

func keyboard(menu render.Menu) (tgbotapi.InlineKeyboardMarkup, bool) {
	if menu.Empty() {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(menu))
	for _, r := range menu {
		if len(r) == 0 {
			continue
		}
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Action))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func classify(err error) error {
	if isMarkdownParseError(err) {
		return fmt.Errorf("%w: %v", render.ErrMarkup, err)
	}
	return err
}

func isMarkdownParseError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		desc := strings.ToLower(apiErr.Message)
		if strings.Contains(desc, "can't parse entities") || strings.Contains(desc, "can't parse entity") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't parse entities") || strings.Contains(msg, "can't parse entity")
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}
