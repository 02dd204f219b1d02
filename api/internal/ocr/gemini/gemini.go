// Package gemini transcribes document photos with a multimodal Gemini model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"documind-bot/api/internal/ocr"
	"documind-bot/api/internal/util"
)

// noTextMarker is what the model is told to answer for an image without text.
const noTextMarker = "NO_TEXT"

const transcribeInstruction = `You are an OCR engine. Transcribe ALL text visible in the image exactly as written.
Keep the original language, line breaks, numbers and punctuation. Do not translate, summarize or comment.
Output plain text only, without markdown or code fences.
If the image contains no readable text, answer exactly: ` + noTextMarker

type Engine struct {
	APIKey string
	Model  string
	Langs  []string

	// generate sends one request; replaced in tests.
	generate func(ctx context.Context, parts []genai.Part) (*genai.GenerateContentResponse, error)
}

func New(apiKey, model string, opt ocr.Options) *Engine {
	if opt.Model != "" {
		model = opt.Model
	}
	e := &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		Langs:  opt.Langs,
	}
	e.generate = e.callGemini
	return e
}

func (e *Engine) Name() string { return "gemini" }

// Recognize makes a single request; the caller's deadline bounds it.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	parts := []genai.Part{
		genai.Text(userPrompt(e.Langs)),
		genai.Blob{MIMEType: util.SniffMimeHTTP(image), Data: image},
	}
	resp, err := e.generate(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("gemini ocr: %w", err)
	}
	return parseTranscript(firstText(resp))
}

func (e *Engine) callGemini(ctx context.Context, parts []genai.Part) (*genai.GenerateContentResponse, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(transcribeInstruction)}}
	return m.GenerateContent(ctx, parts...)
}

func userPrompt(langs []string) string {
	if len(langs) == 0 {
		return "Transcribe the document."
	}
	return "Transcribe the document. Expected languages: " + strings.Join(langs, ", ") + "."
}

func parseTranscript(raw string) (string, error) {
	txt := strings.TrimSpace(util.StripCodeFences(raw))
	if txt == "" || txt == noTextMarker {
		return "", ocr.ErrNoText
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
