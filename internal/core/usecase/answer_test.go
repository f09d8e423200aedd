package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxrag/voxrag/internal/core/domain"
)

func TestAnswerBuildsGroundedPrompt(t *testing.T) {
	gen := &generatorFake{output: "The warranty lasts two years."}
	uc := NewAnswerUseCase(gen)

	candidates := []domain.RerankedCandidate{
		{FusedCandidate: domain.FusedCandidate{ChunkID: "c1", Page: 4, Text: "Warranty: 24 months."}, Relevance: 0.9},
	}
	history := []domain.ConversationTurn{{Query: "about the product", Response: "It is a vacuum."}}

	got, err := uc.Answer(context.Background(), "how long is the warranty?", candidates, history)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "The warranty lasts two years." {
		t.Fatalf("unexpected answer: %q", got)
	}
	if !strings.Contains(gen.prompt, "Warranty: 24 months.") {
		t.Fatalf("expected context passage in prompt")
	}
	if !strings.Contains(gen.prompt, "(page 4)") {
		t.Fatalf("expected page marker in prompt")
	}
	if !strings.Contains(gen.prompt, "It is a vacuum.") {
		t.Fatalf("expected history in prompt")
	}
	if !strings.Contains(gen.prompt, "No markdown") {
		t.Fatalf("expected voice style instruction in prompt")
	}
}

func TestAnswerStripsMarkdownForSpeech(t *testing.T) {
	gen := &generatorFake{output: "**Two years.** See the `warranty` section, *page 4*."}
	uc := NewAnswerUseCase(gen)

	got, err := uc.Answer(context.Background(), "how long?", fusedToReranked(fusedFixture("c1")), nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "Two years. See the warranty section, page 4." {
		t.Fatalf("expected formatting marks stripped, got %q", got)
	}
}

func TestAnswerMarkdownOnlyCompletionIsFatal(t *testing.T) {
	uc := NewAnswerUseCase(&generatorFake{output: "** **"})
	_, err := uc.Answer(context.Background(), "q", fusedToReranked(fusedFixture("c1")), nil)
	if !domain.IsKind(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestAnswerGeneratorErrorIsFatal(t *testing.T) {
	uc := NewAnswerUseCase(&generatorFake{err: errors.New("ollama down")})
	_, err := uc.Answer(context.Background(), "q", fusedToReranked(fusedFixture("c1")), nil)
	if !domain.IsKind(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestAnswerEmptyCompletionIsFatal(t *testing.T) {
	uc := NewAnswerUseCase(&generatorFake{output: "   "})
	_, err := uc.Answer(context.Background(), "q", fusedToReranked(fusedFixture("c1")), nil)
	if !domain.IsKind(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func fusedToReranked(fused []domain.FusedCandidate) []domain.RerankedCandidate {
	out := make([]domain.RerankedCandidate, 0, len(fused))
	for _, c := range fused {
		out = append(out, domain.RerankedCandidate{FusedCandidate: c, Relevance: c.FusedScore})
	}
	return out
}
