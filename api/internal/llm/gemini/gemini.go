// Package gemini generates text with Google Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Generator struct {
	APIKey      string
	Model       string
	Temperature float32
}

func New(apiKey, model string) *Generator {
	return &Generator{
		APIKey:      strings.TrimSpace(apiKey),
		Model:       strings.TrimSpace(model),
		Temperature: 0.2,
	}
}

func (g *Generator) Name() string { return "gemini" }

func (g *Generator) Generate(ctx context.Context, system, text string) (string, error) {
	if g.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: &g.Temperature}
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt(text)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	out := firstText(resp)
	if out == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return out, nil
}

func userPrompt(text string) string {
	return "Document text:\n\n" + text
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
