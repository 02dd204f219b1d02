// Package openai generates text with the OpenAI chat completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DeepSeekBaseURL serves an OpenAI compatible chat completions API.
const DeepSeekBaseURL = "https://api.deepseek.com/v1"

type Generator struct {
	name        string
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func New(apiKey, model string) *Generator {
	return NewWithConfig(openai.DefaultConfig(strings.TrimSpace(apiKey)), model)
}

func NewDeepSeek(apiKey, model string) *Generator {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	cfg.BaseURL = DeepSeekBaseURL
	g := NewWithConfig(cfg, model)
	g.name = "deepseek"
	return g
}

// NewWithConfig allows a custom base URL (proxies, compatible servers, tests).
func NewWithConfig(cfg openai.ClientConfig, model string) *Generator {
	return &Generator{
		name:        "openai",
		client:      openai.NewClientWithConfig(cfg),
		model:       strings.TrimSpace(model),
		temperature: 0.2,
		maxTokens:   2000,
	}
}

func (g *Generator) Name() string { return g.name }

func (g *Generator) Generate(ctx context.Context, system, text string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "Document text:\n\n" + text})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages:    msgs,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", g.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s completion: no choices", g.name)
	}
	return resp.Choices[0].Message.Content, nil
}
