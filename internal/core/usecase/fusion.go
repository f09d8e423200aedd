package usecase

import (
	"sort"

	"github.com/voxrag/voxrag/internal/core/domain"
)

type fusedScore struct {
	chunkID string
	score   float64
}

// fuseCandidatesRRF merges ranked candidate lists with reciprocal rank
// fusion. Each list contributes 1/(k+rank) per chunk, so a chunk that
// appears in both lists accumulates both contributions. The output is
// ordered by fused score descending with chunk id ascending as the
// deterministic tie-break, and contains each chunk id exactly once.
func fuseCandidatesRRF(rrfK int, lists ...[]domain.ScoredCandidate) []fusedScore {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]float64)
	order := make([]string, 0)
	for _, list := range lists {
		for rank, candidate := range list {
			if candidate.ChunkID == "" {
				continue
			}
			if _, seen := acc[candidate.ChunkID]; !seen {
				order = append(order, candidate.ChunkID)
			}
			acc[candidate.ChunkID] += 1.0 / float64(rrfK+rank+1)
		}
	}

	out := make([]fusedScore, 0, len(acc))
	for _, id := range order {
		out = append(out, fusedScore{chunkID: id, score: acc[id]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].chunkID < out[j].chunkID
	})

	return out
}

func trimFused(fused []fusedScore, limit int) []fusedScore {
	if limit <= 0 || len(fused) <= limit {
		return fused
	}
	return fused[:limit]
}
