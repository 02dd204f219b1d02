package telegram

import (
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeRequester struct {
	got []tgbotapi.Chattable
	err error
}

func (f *fakeRequester) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.got = append(f.got, c)
	return &tgbotapi.APIResponse{Ok: f.err == nil}, f.err
}

func TestWebhookPath(t *testing.T) {
	p := WebhookPath("123:ABC")
	if !strings.HasPrefix(p, "/webhook/") || len(p) != len("/webhook/")+16 {
		t.Fatalf("WebhookPath() = %q", p)
	}
	if p != WebhookPath("123:ABC") || p == WebhookPath("123:ABD") {
		t.Fatal("path must be stable per token")
	}
}

func TestRegisterWebhook(t *testing.T) {
	r := &fakeRequester{}
	public, err := RegisterWebhook(r, "https://bot.example.com/", "/webhook/abc")
	if err != nil {
		t.Fatalf("RegisterWebhook() error = %v", err)
	}
	if public != "https://bot.example.com/webhook/abc" {
		t.Fatalf("public = %q", public)
	}
	wh, ok := r.got[0].(tgbotapi.WebhookConfig)
	if !ok || wh.URL.String() != public || !wh.DropPendingUpdates {
		t.Fatalf("request = %#v", r.got[0])
	}

	r = &fakeRequester{err: errors.New("unauthorized")}
	if _, err := RegisterWebhook(r, "https://bot.example.com", "/webhook/abc"); err == nil {
		t.Fatal("expected error")
	}
	if err := DeleteWebhook(r); err == nil {
		t.Fatal("expected error")
	}
}
