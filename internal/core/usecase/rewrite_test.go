package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxrag/voxrag/internal/core/domain"
)

type generatorFake struct {
	output string
	err    error
	prompt string
	calls  int
}

func (f *generatorFake) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func TestRewriteEmptyHistoryReturnsRawVerbatim(t *testing.T) {
	gen := &generatorFake{output: "should not be used"}
	uc := NewRewriteUseCase(gen, 5, nil)

	got, degraded := uc.Rewrite(context.Background(), "  what is the warranty period?  ", nil)
	if degraded {
		t.Fatalf("unexpected degraded rewrite")
	}
	if got != "  what is the warranty period?  " {
		t.Fatalf("expected raw query unchanged, got %q", got)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no model call for empty history, got %d", gen.calls)
	}
}

func TestRewriteResolvesAgainstHistory(t *testing.T) {
	gen := &generatorFake{output: "what is the battery capacity of the Model X vacuum?"}
	uc := NewRewriteUseCase(gen, 5, nil)

	history := []domain.ConversationTurn{
		{Query: "tell me about the Model X vacuum", Response: "The Model X is a cordless vacuum."},
	}
	got, degraded := uc.Rewrite(context.Background(), "what about its battery?", history)
	if degraded {
		t.Fatalf("unexpected degraded rewrite")
	}
	if got != "what is the battery capacity of the Model X vacuum?" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
	if !strings.Contains(gen.prompt, "Model X") {
		t.Fatalf("expected history in prompt")
	}
	if !strings.Contains(gen.prompt, "what about its battery?") {
		t.Fatalf("expected latest question in prompt")
	}
}

func TestRewriteFallsBackOnGeneratorError(t *testing.T) {
	gen := &generatorFake{err: errors.New("model down")}
	uc := NewRewriteUseCase(gen, 5, nil)

	history := []domain.ConversationTurn{{Query: "q1", Response: "a1"}}
	got, degraded := uc.Rewrite(context.Background(), "what about it?", history)
	if !degraded {
		t.Fatalf("expected degraded rewrite")
	}
	if got != "what about it?" {
		t.Fatalf("expected raw query fallback, got %q", got)
	}
}

func TestRewriteFallsBackOnEmptyOutput(t *testing.T) {
	gen := &generatorFake{output: "  \"\" "}
	uc := NewRewriteUseCase(gen, 5, nil)

	got, degraded := uc.Rewrite(context.Background(), "and the price?", []domain.ConversationTurn{{Query: "q", Response: "a"}})
	if !degraded {
		t.Fatalf("expected degraded rewrite for empty output")
	}
	if got != "and the price?" {
		t.Fatalf("expected raw fallback, got %q", got)
	}
}

func TestRewriteTrimsHistoryToWindow(t *testing.T) {
	gen := &generatorFake{output: "standalone"}
	uc := NewRewriteUseCase(gen, 2, nil)

	history := []domain.ConversationTurn{
		{Query: "oldest", Response: "a"},
		{Query: "middle", Response: "b"},
		{Query: "newest", Response: "c"},
	}
	uc.Rewrite(context.Background(), "follow up", history)
	if strings.Contains(gen.prompt, "oldest") {
		t.Fatalf("expected oldest turn outside window to be dropped")
	}
	if !strings.Contains(gen.prompt, "middle") || !strings.Contains(gen.prompt, "newest") {
		t.Fatalf("expected last two turns in prompt")
	}
}

func TestSanitizeRewrite(t *testing.T) {
	if got := sanitizeRewrite("\"rewritten query\"\nexplanation"); got != "rewritten query" {
		t.Fatalf("unexpected sanitize result: %q", got)
	}
	if got := sanitizeRewrite("   "); got != "" {
		t.Fatalf("expected empty result for blank input, got %q", got)
	}
}
