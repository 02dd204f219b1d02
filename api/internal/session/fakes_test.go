package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"documind-bot/api/internal/llm"
	"documind-bot/api/internal/render"
	"documind-bot/api/internal/store"
)

type op struct {
	kind      string // send | edit | delete | document | answer
	chatID    int64
	messageID int
	msg       render.Message
	file      render.File
}

type fakeMessenger struct {
	mu     sync.Mutex
	nextID int
	ops    []op
	photo  []byte

	fetchErr error
	// markupFailures makes that many Markdown sends/edits fail with ErrMarkup.
	markupFailures int
	// failPlain makes plain sends fail too.
	failPlain bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 100, photo: []byte{0xFF, 0xD8, 0x01}}
}

func (f *fakeMessenger) markupErr(m render.Message) error {
	if m.ParseMode == render.ModeMarkdown && f.markupFailures > 0 {
		f.markupFailures--
		return render.ErrMarkup
	}
	if m.ParseMode == render.ModePlain && f.failPlain {
		return errors.New("telegram: bad request")
	}
	return nil
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, m render.Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op{kind: "send", chatID: chatID, msg: m})
	if err := f.markupErr(m); err != nil {
		return 0, err
	}
	f.nextID++
	f.ops[len(f.ops)-1].messageID = f.nextID
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(_ context.Context, chatID int64, messageID int, m render.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op{kind: "edit", chatID: chatID, messageID: messageID, msg: m})
	return f.markupErr(m)
}

func (f *fakeMessenger) Delete(_ context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op{kind: "delete", chatID: chatID, messageID: messageID})
	return nil
}

func (f *fakeMessenger) SendDocument(_ context.Context, chatID int64, file render.File) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.ops = append(f.ops, op{kind: "document", chatID: chatID, messageID: f.nextID, file: file})
	return f.nextID, nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, callbackID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op{kind: "answer"})
	return nil
}

func (f *fakeMessenger) FetchPhoto(context.Context, string) ([]byte, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.photo, nil
}

func (f *fakeMessenger) count(kind string) int {
	n := 0
	for _, o := range f.ops {
		if o.kind == kind {
			n++
		}
	}
	return n
}

func (f *fakeMessenger) last(kind string) op {
	for i := len(f.ops) - 1; i >= 0; i-- {
		if f.ops[i].kind == kind {
			return f.ops[i]
		}
	}
	return op{}
}

type fakeOCR struct {
	text  string
	calls int
}

func (f *fakeOCR) ExtractText(context.Context, []byte) (string, bool) {
	f.calls++
	return f.text, f.text != ""
}

type genCall struct {
	text    string
	profile llm.Profile
}

type fakeLLM struct {
	out   string
	calls []genCall
}

func (f *fakeLLM) Generate(_ context.Context, text string, p llm.Profile) string {
	f.calls = append(f.calls, genCall{text: text, profile: p})
	if f.out == "" {
		return llm.FallbackText
	}
	return f.out
}

// failingCache fails every write, like an unreachable backend.
type failingCache struct{ *store.MemoryCache }

func (failingCache) Put(context.Context, int64, int, string) error {
	return errors.New("connection refused")
}

type harness struct {
	c     *Controller
	msgr  *fakeMessenger
	ocr   *fakeOCR
	llm   *fakeLLM
	cache *store.MemoryCache
}

func newHarness(threshold int) *harness {
	h := &harness{
		msgr:  newFakeMessenger(),
		ocr:   &fakeOCR{},
		llm:   &fakeLLM{},
		cache: store.NewMemoryCache(0),
	}
	h.c = New(Deps{
		OCR:       h.ocr,
		LLM:       h.llm,
		Profiles:  llm.DefaultProfiles(),
		Cache:     h.cache,
		Messenger: h.msgr,
		Renderer:  render.New(threshold),
		Now:       func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
		Log:       zerolog.Nop(),
	})
	return h
}
