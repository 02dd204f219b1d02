package yandex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"documind-bot/api/internal/ocr"
)

func newTestEngine(t *testing.T, ocrHandler http.HandlerFunc) (*Engine, *int32) {
	t.Helper()
	var iamCalls int32
	iam := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&iamCalls, 1)
		_ = json.NewEncoder(w).Encode(map[string]string{"iamToken": "tok" + string(rune('0'+n))})
	}))
	t.Cleanup(iam.Close)
	srv := httptest.NewServer(ocrHandler)
	t.Cleanup(srv.Close)

	e := New("oauth", "folder-1", ocr.Options{Langs: []string{"uk", "en"}})
	e.url = srv.URL
	e.iamc.url = iam.URL
	return e, &iamCalls
}

func TestRecognize_FullText(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0x00}
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-folder-id") != "folder-1" || r.Header.Get("Authorization") != "Bearer tok1" {
			t.Errorf("bad headers: %v", r.Header)
		}
		var req request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.MimeType != "JPEG" || req.Model != "page" || req.Content != base64.StdEncoding.EncodeToString(img) {
			t.Errorf("bad request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"result":{"textAnnotation":{"fullText":"INVOICE #1\n"}}}`))
	})
	got, err := e.Recognize(context.Background(), img)
	if err != nil || got != "INVOICE #1" {
		t.Fatalf("Recognize() = %q, %v", got, err)
	}
}

func TestRecognize_LinesFallback(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"textAnnotation":{"blocks":[{"lines":[{"text":"a"},{"text":" "},{"text":"b"}]}]}}}`))
	})
	got, err := e.Recognize(context.Background(), []byte{1})
	if err != nil || got != "a\nb" {
		t.Fatalf("Recognize() = %q, %v", got, err)
	}
}

func TestRecognize_NoText(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{}}`))
	})
	if _, err := e.Recognize(context.Background(), []byte{1}); !errors.Is(err, ocr.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestRecognize_RetriesOnceOnUnauthorized(t *testing.T) {
	var calls int32
	e, iamCalls := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok2" {
			t.Errorf("retry must use a fresh token, got %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"result":{"textAnnotation":{"fullText":"ok"}}}`))
	})
	got, err := e.Recognize(context.Background(), []byte{1})
	if err != nil || got != "ok" {
		t.Fatalf("Recognize() = %q, %v", got, err)
	}
	if calls != 2 || atomic.LoadInt32(iamCalls) != 2 {
		t.Fatalf("calls = %d, iam calls = %d", calls, *iamCalls)
	}
}

func TestRecognize_ServerError(t *testing.T) {
	e, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	if _, err := e.Recognize(context.Background(), []byte{1}); err == nil {
		t.Fatal("expected error")
	}
}

func TestIamClient_CachesToken(t *testing.T) {
	e, iamCalls := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {})
	for i := 0; i < 3; i++ {
		if _, err := e.iamc.Token(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(iamCalls); n != 1 {
		t.Fatalf("iam calls = %d, want 1", n)
	}
}
