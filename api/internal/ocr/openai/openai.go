// Package openai recognizes document text with a vision-capable OpenAI chat model.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"documind-bot/api/internal/ocr"
	"documind-bot/api/internal/util"
)

const noTextMarker = "NO_TEXT"

type Engine struct {
	client *openai.Client
	model  string
	langs  []string
}

func New(apiKey, model string, opt ocr.Options) *Engine {
	return NewWithConfig(openai.DefaultConfig(strings.TrimSpace(apiKey)), model, opt)
}

func NewWithConfig(cfg openai.ClientConfig, model string, opt ocr.Options) *Engine {
	if opt.Model != "" {
		model = opt.Model
	}
	return &Engine{
		client: openai.NewClientWithConfig(cfg),
		model:  strings.TrimSpace(model),
		langs:  opt.Langs,
	}
}

func (e *Engine) Name() string { return "openai" }

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	dataURL := "data:" + util.SniffMimeHTTP(image) + ";base64," + base64.StdEncoding.EncodeToString(image)

	system := `You transcribe document photos. Return the text exactly as printed, preserving line breaks.
Do not translate, summarize or comment. If the image contains no readable text, answer ` + noTextMarker + `.`
	user := "Transcribe the text in this image."
	if len(e.langs) > 0 {
		user += " Expected languages: " + strings.Join(e.langs, ", ") + "."
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: user},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailHigh,
				}},
			}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai ocr: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai ocr: no choices")
	}
	txt := strings.TrimSpace(util.StripCodeFences(resp.Choices[0].Message.Content))
	if txt == "" || txt == noTextMarker {
		return "", ocr.ErrNoText
	}
	return txt, nil
}
