package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"documind-bot/api/internal/session"
)

func command(chatID int64, text string) *tgbotapi.Message {
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}},
	}
}

func TestEventFromUpdate(t *testing.T) {
	photo := []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
	tests := []struct {
		name string
		upd  tgbotapi.Update
		want session.Event
	}{
		{"start", tgbotapi.Update{Message: command(7, "/start")}, session.StartCommand(7)},
		{"start with bot name", tgbotapi.Update{Message: command(7, "/start@documind_bot")}, session.StartCommand(7)},
		{"clear", tgbotapi.Update{Message: command(7, "/clear")}, session.ClearCommand(7)},
		{"unknown command", tgbotapi.Update{Message: command(7, "/engine gpt")}, session.Unrecognized(7)},
		{"photo", tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}, Photo: photo}}, session.PhotoOnly(7, "large")},
		{"photo with caption", tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}, Photo: photo, Caption: " translate "}},
			session.PhotoWithCaption(7, "large", "translate")},
		{"blank caption", tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}, Photo: photo, Caption: "  "}}, session.PhotoOnly(7, "large")},
		{"text", tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}, Text: "hello"}}, session.Unrecognized(7)},
		{"document", tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}, Document: &tgbotapi.Document{FileID: "d"}}}, session.Unrecognized(7)},
		{"button", tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			Data:    "summarize",
			Message: &tgbotapi.Message{MessageID: 55, Chat: &tgbotapi.Chat{ID: 7}},
		}}, session.ActionPress(session.Summarize, 7, 55, "cb-1")},
		{"button without message", tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-2",
			Data: "new_scan",
			From: &tgbotapi.User{ID: 9},
		}}, session.ActionPress(session.NewScan, 9, 0, "cb-2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EventFromUpdate(tt.upd)
			if !ok {
				t.Fatal("update ignored")
			}
			if got != tt.want {
				t.Fatalf("EventFromUpdate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEventFromUpdate_Ignored(t *testing.T) {
	for _, upd := range []tgbotapi.Update{
		{},
		{EditedMessage: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "x"}},
		{CallbackQuery: &tgbotapi.CallbackQuery{ID: "x"}},
	} {
		if ev, ok := EventFromUpdate(upd); ok {
			t.Fatalf("expected update to be ignored, got %+v", ev)
		}
	}
}

type recordingHandler struct {
	events []session.Event
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, ev session.Event) (session.Result, error) {
	h.events = append(h.events, ev)
	return session.Result{Kind: ev.Kind}, h.err
}

func TestDispatch(t *testing.T) {
	h := &recordingHandler{}
	handled, err := Dispatch(context.Background(), h, tgbotapi.Update{Message: command(3, "/start")})
	if !handled || err != nil || len(h.events) != 1 || h.events[0].Kind != session.EventStart {
		t.Fatalf("Dispatch() = %v, %v; events %+v", handled, err, h.events)
	}

	handled, err = Dispatch(context.Background(), h, tgbotapi.Update{})
	if handled || err != nil || len(h.events) != 1 {
		t.Fatalf("empty update: %v, %v", handled, err)
	}

	h.err = errors.New("boom")
	if _, err := Dispatch(context.Background(), h, tgbotapi.Update{Message: command(3, "/clear")}); !errors.Is(err, h.err) {
		t.Fatalf("Dispatch() error = %v", err)
	}
}
