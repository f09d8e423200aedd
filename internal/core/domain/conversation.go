package domain

import "time"

// ConversationTurn is one completed exchange within a session. Turns are
// append-only; a turn is recorded only after the final answer was produced.
type ConversationTurn struct {
	Query          string    `json:"query"`
	RewrittenQuery string    `json:"rewritten_query"`
	Response       string    `json:"response"`
	At             time.Time `json:"at"`
}

// SourceRef points a caller at the material an answer was grounded on.
type SourceRef struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page"`
	Score      float64 `json:"score"`
}

// QueryResult is the externally observable outcome of one query. It is
// recomputed per request and never persisted.
type QueryResult struct {
	SessionID      string      `json:"session_id"`
	OriginalQuery  string      `json:"original_query"`
	RewrittenQuery string      `json:"rewritten_query"`
	Response       string      `json:"response"`
	Filler         string      `json:"filler,omitempty"`
	Sources        []SourceRef `json:"sources"`
	TTFBMillis     int64       `json:"ttfb_ms"`
	TotalMillis    int64       `json:"total_ms"`

	// DegradedStages lists pipeline stages that fell back to a degraded
	// path. Internal observability only, never exposed to callers.
	DegradedStages []string `json:"-"`
}
