package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/voxrag/voxrag/internal/infrastructure/resilience"
)

// Client calls a cross-encoder reranking service with the common
// /rerank contract: documents in, per-index relevance scores out.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		executor:   executor,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score returns one relevance score per input text, in input order.
func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: texts,
		TopN:      len(texts),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	var parsed rerankResponse
	err = c.executor.Execute(ctx, "rerank_score", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create rerank request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("rerank request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &statusError{status: resp.Status, code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
		}
		parsed = rerankResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("decode rerank response: %w", err)
		}
		return nil
	}, classifyRerankError)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(texts))
	for _, result := range parsed.Results {
		if result.Index < 0 || result.Index >= len(texts) {
			return nil, fmt.Errorf("rerank result index %d out of range", result.Index)
		}
		scores[result.Index] = result.RelevanceScore
	}
	return scores, nil
}

type statusError struct {
	status string
	code   int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("rerank status: %s", e.status)
	}
	return fmt.Sprintf("rerank status: %s: %s", e.status, e.body)
}

func classifyRerankError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
