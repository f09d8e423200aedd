package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
)

// RerankUseCase rescoreres the fused head with a cross-encoder style
// relevance model and keeps the strongest few candidates.
type RerankUseCase struct {
	scorer ports.RelevanceScorer
	topN   int
	keep   int
	logger *slog.Logger
}

func NewRerankUseCase(scorer ports.RelevanceScorer, topN, keep int, logger *slog.Logger) *RerankUseCase {
	if topN <= 0 {
		topN = 20
	}
	if keep <= 0 {
		keep = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RerankUseCase{scorer: scorer, topN: topN, keep: keep, logger: logger}
}

// Rerank returns at most keep candidates ordered by relevance
// descending. The degraded flag is true when the scorer failed and the
// fused ordering was used as-is.
func (uc *RerankUseCase) Rerank(ctx context.Context, query string, fused []domain.FusedCandidate) ([]domain.RerankedCandidate, bool) {
	if len(fused) == 0 {
		return nil, false
	}

	head := fused
	if len(head) > uc.topN {
		head = head[:uc.topN]
	}

	texts := make([]string, len(head))
	for i, c := range head {
		texts[i] = c.Text
	}

	scores, err := uc.scorer.Score(ctx, query, texts)
	if err != nil || len(scores) != len(head) {
		if err != nil {
			uc.logger.Warn("relevance scoring failed, keeping fused order", slog.String("error", err.Error()))
		} else {
			uc.logger.Warn("relevance scorer returned mismatched scores, keeping fused order",
				slog.Int("want", len(head)), slog.Int("got", len(scores)))
		}
		out := make([]domain.RerankedCandidate, 0, min(uc.keep, len(head)))
		for _, c := range head[:min(uc.keep, len(head))] {
			out = append(out, domain.RerankedCandidate{FusedCandidate: c, Relevance: c.FusedScore})
		}
		return out, true
	}

	out := make([]domain.RerankedCandidate, len(head))
	for i, c := range head {
		out[i] = domain.RerankedCandidate{FusedCandidate: c, Relevance: scores[i]}
	}

	// Stable sort keeps equal-relevance candidates in fused order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})

	if len(out) > uc.keep {
		out = out[:uc.keep]
	}
	return out, false
}
