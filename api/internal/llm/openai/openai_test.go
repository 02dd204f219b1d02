package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func newTestGenerator(t *testing.T, h http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewWithConfig(cfg, "gpt-4o-mini")
}

func TestGenerate(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("bad request: %+v", req)
		}
		if req.Messages[1].Content != "Document text:\n\nINVOICE #1" {
			t.Errorf("user message = %q", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"An invoice."},"finish_reason":"stop"}]}`))
	})
	got, err := g.Generate(context.Background(), "summarize", "INVOICE #1")
	if err != nil || got != "An invoice." {
		t.Fatalf("Generate() = %q, %v", got, err)
	}
}

func TestGenerate_Errors(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})
	if _, err := g.Generate(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error for empty choices")
	}

	g = newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	})
	if _, err := g.Generate(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestNewDeepSeek(t *testing.T) {
	g := NewDeepSeek("k", "deepseek-chat")
	if g.Name() != "deepseek" || g.model != "deepseek-chat" {
		t.Fatalf("generator = %s %s", g.Name(), g.model)
	}
	if New("k", "gpt-4o-mini").Name() != "openai" {
		t.Fatal("openai name")
	}
}
