package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"documind-bot/api/internal/util"
)

// WebhookPath is the secret path updates are delivered to; it is derived from
// the token so it is stable across restarts and not guessable.
func WebhookPath(token string) string {
	return "/webhook/" + util.ShortHash(token)
}

// Requester is the part of *tgbotapi.BotAPI used for webhook management.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// RegisterWebhook points Telegram at baseURL+path and drops updates queued
// while the bot was down.
func RegisterWebhook(bot Requester, baseURL, path string) (string, error) {
	public := strings.TrimRight(baseURL, "/") + path
	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return "", fmt.Errorf("webhook url: %w", err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return "", fmt.Errorf("set webhook: %w", err)
	}
	return public, nil
}

// DeleteWebhook is required before getUpdates works again.
func DeleteWebhook(bot Requester) error {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}
