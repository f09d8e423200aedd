package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
)

// AnswerUseCase produces the final spoken-style answer grounded in the
// reranked context passages.
type AnswerUseCase struct {
	generator ports.Generator
}

func NewAnswerUseCase(generator ports.Generator) *AnswerUseCase {
	return &AnswerUseCase{generator: generator}
}

func (uc *AnswerUseCase) Answer(
	ctx context.Context,
	query string,
	candidates []domain.RerankedCandidate,
	history []domain.ConversationTurn,
) (string, error) {
	text, err := uc.generator.Generate(ctx, buildAnswerPrompt(query, candidates, history))
	if err != nil {
		return "", domain.WrapError(domain.ErrGenerationFailed, "generate answer", err)
	}
	text = strings.TrimSpace(stripMarkdown(text))
	if text == "" {
		return "", domain.WrapError(domain.ErrGenerationFailed, "generate answer", fmt.Errorf("empty completion"))
	}
	return text, nil
}

var markdownStripper = strings.NewReplacer("**", "", "__", "", "*", "", "`", "", "#", "")

// stripMarkdown removes the formatting marks models emit despite the
// prompt. The result goes to a speech synthesizer, which would read
// them aloud.
func stripMarkdown(text string) string {
	return markdownStripper.Replace(text)
}

func buildAnswerPrompt(query string, candidates []domain.RerankedCandidate, history []domain.ConversationTurn) string {
	var b strings.Builder
	b.WriteString("You are a voice assistant answering questions about the user's documents.\n")
	b.WriteString("Answer in short plain sentences suitable for speech. No markdown, no bullet lists, no headings.\n")
	b.WriteString("Use only the context passages below. If they do not contain the answer, say so briefly.\n\n")

	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Query, turn.Response)
		}
		b.WriteString("\n")
	}

	b.WriteString("Context passages:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] (page %d) %s\n", i+1, c.Page, strings.TrimSpace(c.Text))
	}

	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", query)
	return b.String()
}
