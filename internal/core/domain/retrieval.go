package domain

// CandidateSource identifies which retrieval signal produced a candidate.
type CandidateSource string

const (
	SourceVector  CandidateSource = "vector"
	SourceLexical CandidateSource = "lexical"
)

// ScoredCandidate is a raw hit from a single retrieval service. Scores are on
// the service's own scale (cosine similarity vs. BM25 rank) and are never
// compared across sources directly.
type ScoredCandidate struct {
	ChunkID string          `json:"chunk_id"`
	Score   float64         `json:"score"`
	Source  CandidateSource `json:"source"`
}

// FusedCandidate is one unique chunk after rank fusion, hydrated with its text
// and source locator.
type FusedCandidate struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page"`
	Text       string  `json:"text"`
	FusedScore float64 `json:"fused_score"`
}

// RerankedCandidate carries the cross-encoder relevance score on top of the
// fused candidate. Higher is always better.
type RerankedCandidate struct {
	FusedCandidate
	Relevance float64 `json:"relevance_score"`
}

// ChunkContent is the stored payload behind a chunk id.
type ChunkContent struct {
	ChunkID    string
	DocumentID string
	Page       int
	Text       string
}
