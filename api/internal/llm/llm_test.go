package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeGenerator struct {
	out    string
	err    error
	system string
	text   string
	wait   time.Duration
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(ctx context.Context, system, text string) (string, error) {
	f.system, f.text = system, text
	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

func TestService_Generate(t *testing.T) {
	p := DefaultProfiles().Lookup("summarize")
	gen := &fakeGenerator{out: "```\nShort invoice.\n```"}
	s := NewService(gen, zerolog.Nop(), 0)
	if got := s.Generate(context.Background(), "INVOICE #1", p); got != "Short invoice." {
		t.Fatalf("Generate() = %q", got)
	}
	if gen.text != "INVOICE #1" || gen.system != p.Instruction {
		t.Fatalf("generator got system=%q text=%q", gen.system, gen.text)
	}
}

func TestService_FallbackOnFailure(t *testing.T) {
	p := DefaultProfiles().Lookup("keywords")
	for name, gen := range map[string]*fakeGenerator{
		"error":   {err: errors.New("503")},
		"empty":   {out: "  "},
		"timeout": {out: "late", wait: time.Second},
	} {
		t.Run(name, func(t *testing.T) {
			s := NewService(gen, zerolog.Nop(), 20*time.Millisecond)
			if got := s.Generate(context.Background(), "x", p); got != FallbackText {
				t.Fatalf("Generate() = %q, want fallback", got)
			}
		})
	}
}

func TestDefaultProfiles(t *testing.T) {
	ps := DefaultProfiles()
	for _, a := range []string{"summarize", "translate_en", "translate_ua", "keywords"} {
		if !ps.Has(a) {
			t.Errorf("missing profile %q", a)
		}
		if p := ps.Lookup(a); p.Title == "" || !strings.Contains(p.Instruction, "single asterisks") {
			t.Errorf("profile %q incomplete: %+v", a, p)
		}
	}
}

func TestLookup_UnknownActionIsGeneric(t *testing.T) {
	p := DefaultProfiles().Lookup("extract_dates")
	if p.Action != "extract_dates" || !strings.Contains(p.Instruction, `"extract dates"`) {
		t.Fatalf("generic profile = %+v", p)
	}
}

func TestCaptionProfile(t *testing.T) {
	p := CaptionProfile("  what is the total?  ")
	if !strings.Contains(p.Instruction, "what is the total?\n") {
		t.Fatalf("caption not embedded: %q", p.Instruction)
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	data := "profiles:\n  - action: summarize\n    title: S\n    instruction: be brief\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	ps, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("LoadProfiles() error = %v", err)
	}
	if ps.Lookup("summarize").Instruction != "be brief" || ps.Has("keywords") {
		t.Fatalf("unexpected profiles: %+v", ps.byAction)
	}

	if _, err := ParseProfiles([]byte("profiles:\n  - action: a\n    instruction: x\n  - action: a\n    instruction: y\n")); err == nil {
		t.Fatal("duplicate actions must be rejected")
	}
	if _, err := LoadProfiles(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing file must fail")
	}
}
