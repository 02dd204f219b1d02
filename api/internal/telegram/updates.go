package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"documind-bot/api/internal/session"
)

// EventFromUpdate classifies a raw update. Webhook and polling both go through
// here, so the same update always yields the same event. ok is false for
// updates the bot does not react to (edits, channel posts, inline queries).
func EventFromUpdate(upd tgbotapi.Update) (session.Event, bool) {
	if cq := upd.CallbackQuery; cq != nil {
		var (
			chatID int64
			msgID  int
		)
		switch {
		case cq.Message != nil && cq.Message.Chat != nil:
			chatID, msgID = cq.Message.Chat.ID, cq.Message.MessageID
		case cq.From != nil:
			chatID = cq.From.ID
		default:
			return session.Event{}, false
		}
		return session.ActionPress(session.ParseAction(cq.Data), chatID, msgID, cq.ID), true
	}

	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return session.Event{}, false
	}
	cid := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			return session.StartCommand(cid), true
		case "clear":
			return session.ClearCommand(cid), true
		}
		return session.Unrecognized(cid), true
	}
	if len(msg.Photo) > 0 {
		// sizes are ordered small to large
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		if caption := strings.TrimSpace(msg.Caption); caption != "" {
			return session.PhotoWithCaption(cid, fileID, caption), true
		}
		return session.PhotoOnly(cid, fileID), true
	}
	return session.Unrecognized(cid), true
}

// EventHandler is implemented by session.Controller.
type EventHandler interface {
	Handle(ctx context.Context, ev session.Event) (session.Result, error)
}

// Dispatch classifies upd and hands it to h. handled is false for ignored updates.
func Dispatch(ctx context.Context, h EventHandler, upd tgbotapi.Update) (handled bool, err error) {
	ev, ok := EventFromUpdate(upd)
	if !ok {
		return false, nil
	}
	_, err = h.Handle(ctx, ev)
	return true, err
}
