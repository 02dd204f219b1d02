package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestFirstText_JoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("Short "), genai.Text("summary.")}}},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
	}}
	if got := firstText(resp); got != "Short summary." {
		t.Fatalf("firstText() = %q", got)
	}
	if got := firstText(&genai.GenerateContentResponse{}); got != "" {
		t.Fatalf("firstText(empty) = %q", got)
	}
}

func TestGenerate_RequiresKey(t *testing.T) {
	g := New("  ", "gemini-2.5-flash")
	if _, err := g.Generate(context.Background(), "sys", "text"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestUserPrompt(t *testing.T) {
	if got := userPrompt("INVOICE #1"); got != "Document text:\n\nINVOICE #1" {
		t.Fatalf("userPrompt() = %q", got)
	}
}
