package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
)

// RewriteUseCase turns a conversational follow-up into a standalone
// retrieval query by resolving pronouns and elliptical references
// against recent dialogue history.
type RewriteUseCase struct {
	generator ports.Generator
	window    int
	logger    *slog.Logger
}

func NewRewriteUseCase(generator ports.Generator, window int, logger *slog.Logger) *RewriteUseCase {
	if window <= 0 {
		window = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RewriteUseCase{generator: generator, window: window, logger: logger}
}

// Rewrite returns the standalone form of query. With no history the raw
// query is returned verbatim and the model is never called. The degraded
// flag is true when rewriting was attempted but fell back to the raw
// query.
func (uc *RewriteUseCase) Rewrite(ctx context.Context, query string, history []domain.ConversationTurn) (string, bool) {
	if len(history) == 0 {
		return query, false
	}

	recent := history
	if len(recent) > uc.window {
		recent = recent[len(recent)-uc.window:]
	}

	rewritten, err := uc.generator.Generate(ctx, buildRewritePrompt(query, recent))
	if err != nil {
		uc.logger.Warn("query rewrite failed, using raw query", slog.String("error", err.Error()))
		return query, true
	}

	rewritten = sanitizeRewrite(rewritten)
	if rewritten == "" {
		uc.logger.Warn("query rewrite produced empty output, using raw query")
		return query, true
	}
	return rewritten, false
}

func buildRewritePrompt(query string, history []domain.ConversationTurn) string {
	var b strings.Builder
	b.WriteString("You rewrite the user's latest question into a standalone search query.\n")
	b.WriteString("Resolve pronouns and references like \"it\", \"that\", \"the second one\" using the conversation.\n")
	b.WriteString("Keep the user's language and intent. Output only the rewritten query, nothing else.\n\n")
	b.WriteString("Conversation:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Query, turn.Response)
	}
	fmt.Fprintf(&b, "\nLatest question: %s\nRewritten query:", query)
	return b.String()
}

func sanitizeRewrite(s string) string {
	s = strings.TrimSpace(s)
	// Some models answer in full sentences despite the instruction.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	return strings.Trim(s, "\"'`")
}
