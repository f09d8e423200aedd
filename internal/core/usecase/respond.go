package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
)

const noResultsResponse = "I could not find anything about that in your documents. Try asking differently or upload more material."

var defaultFillers = []string{
	"Let me check that for you.",
	"One moment, looking that up.",
	"Give me a second to find that.",
	"Checking your documents now.",
}

type RespondConfig struct {
	Fillers         []string
	RewriteTimeout  time.Duration
	SearchTimeout   time.Duration
	RerankTimeout   time.Duration
	GenerateTimeout time.Duration
}

func (c RespondConfig) withDefaults() RespondConfig {
	if len(c.Fillers) == 0 {
		c.Fillers = defaultFillers
	}
	if c.RewriteTimeout <= 0 {
		c.RewriteTimeout = 3 * time.Second
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 5 * time.Second
	}
	if c.RerankTimeout <= 0 {
		c.RerankTimeout = 3 * time.Second
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = 45 * time.Second
	}
	return c
}

// RespondUseCase orchestrates one conversational turn: acknowledge
// immediately, rewrite the query against session history, retrieve and
// rerank context, generate the answer, and record the turn.
type RespondUseCase struct {
	memory   ports.ConversationMemory
	rewriter *RewriteUseCase
	searcher *HybridSearchUseCase
	reranker *RerankUseCase
	answerer *AnswerUseCase
	cfg      RespondConfig
	logger   *slog.Logger

	fillerCursor atomic.Uint64
}

func NewRespondUseCase(
	memory ports.ConversationMemory,
	rewriter *RewriteUseCase,
	searcher *HybridSearchUseCase,
	reranker *RerankUseCase,
	answerer *AnswerUseCase,
	cfg RespondConfig,
	logger *slog.Logger,
) *RespondUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RespondUseCase{
		memory:   memory,
		rewriter: rewriter,
		searcher: searcher,
		reranker: reranker,
		answerer: answerer,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// HandleQuery runs the full pipeline for one user turn. onFiller, when
// non-nil, is called exactly once with an acknowledgement phrase before
// any model or retrieval call blocks. Every stage except final answer
// generation degrades instead of failing the request.
func (uc *RespondUseCase) HandleQuery(ctx context.Context, sessionID, query string, onFiller func(string)) (*domain.QueryResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	query = strings.TrimSpace(query)
	if sessionID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "handle query", fmt.Errorf("session_id is required"))
	}
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "handle query", fmt.Errorf("query is required"))
	}

	release, err := uc.memory.Begin(sessionID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSessionContention, "handle query", err)
	}
	defer release()

	started := time.Now()
	filler := uc.nextFiller()
	if onFiller != nil {
		onFiller(filler)
	}
	ttfb := time.Since(started)

	history := uc.memory.History(sessionID)
	degraded := make([]string, 0, 4)

	rewriteCtx, cancelRewrite := context.WithTimeout(ctx, uc.cfg.RewriteTimeout)
	rewritten, rewriteDegraded := uc.rewriter.Rewrite(rewriteCtx, query, history)
	cancelRewrite()
	if rewriteDegraded {
		degraded = append(degraded, "rewrite")
	}

	searchCtx, cancelSearch := context.WithTimeout(ctx, uc.cfg.SearchTimeout)
	fused, searchDegraded, searchErr := uc.searcher.Search(searchCtx, rewritten)
	cancelSearch()
	degraded = append(degraded, searchDegraded...)

	// A cancelled caller is not a degraded retrieval: abandon the request
	// without recording a turn.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("handle query: %w", err)
	}

	if searchErr != nil {
		switch {
		case domain.IsKind(searchErr, domain.ErrEmptyCorpus):
			degraded = append(degraded, "empty_corpus")
		default:
			uc.logger.Error("retrieval unavailable", slog.String("error", searchErr.Error()))
			degraded = append(degraded, "retrieval")
		}
		return uc.finishWithoutContext(sessionID, query, rewritten, filler, started, ttfb, degraded), nil
	}
	if len(fused) == 0 {
		return uc.finishWithoutContext(sessionID, query, rewritten, filler, started, ttfb, degraded), nil
	}

	rerankCtx, cancelRerank := context.WithTimeout(ctx, uc.cfg.RerankTimeout)
	reranked, rerankDegraded := uc.reranker.Rerank(rerankCtx, rewritten, fused)
	cancelRerank()
	if rerankDegraded {
		degraded = append(degraded, "rerank")
	}

	genCtx, cancelGen := context.WithTimeout(ctx, uc.cfg.GenerateTimeout)
	response, err := uc.answerer.Answer(genCtx, rewritten, reranked, history)
	cancelGen()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("handle query: %w", err)
	}

	uc.memory.Append(sessionID, domain.ConversationTurn{
		Query:          query,
		RewrittenQuery: rewritten,
		Response:       response,
		At:             time.Now().UTC(),
	})

	sources := make([]domain.SourceRef, 0, len(reranked))
	for _, c := range reranked {
		sources = append(sources, domain.SourceRef{
			ChunkID:    c.ChunkID,
			DocumentID: c.DocumentID,
			Page:       c.Page,
			Score:      c.Relevance,
		})
	}

	return &domain.QueryResult{
		SessionID:      sessionID,
		OriginalQuery:  query,
		RewrittenQuery: rewritten,
		Response:       response,
		Filler:         filler,
		Sources:        sources,
		TTFBMillis:     ttfb.Milliseconds(),
		TotalMillis:    time.Since(started).Milliseconds(),
		DegradedStages: degraded,
	}, nil
}

func (uc *RespondUseCase) finishWithoutContext(sessionID, query, rewritten, filler string, started time.Time, ttfb time.Duration, degraded []string) *domain.QueryResult {
	uc.memory.Append(sessionID, domain.ConversationTurn{
		Query:          query,
		RewrittenQuery: rewritten,
		Response:       noResultsResponse,
		At:             time.Now().UTC(),
	})
	return &domain.QueryResult{
		SessionID:      sessionID,
		OriginalQuery:  query,
		RewrittenQuery: rewritten,
		Response:       noResultsResponse,
		Filler:         filler,
		Sources:        []domain.SourceRef{},
		TTFBMillis:     ttfb.Milliseconds(),
		TotalMillis:    time.Since(started).Milliseconds(),
		DegradedStages: degraded,
	}
}

func (uc *RespondUseCase) nextFiller() string {
	idx := uc.fillerCursor.Add(1) - 1
	return uc.cfg.Fillers[int(idx%uint64(len(uc.cfg.Fillers)))]
}
