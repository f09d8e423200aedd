package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voxrag/voxrag/internal/config"
	"github.com/voxrag/voxrag/internal/core/domain"
)

type ingestErrFake struct {
	err error
}

func (f ingestErrFake) Upload(context.Context, string, string, io.Reader) (*domain.Document, error) {
	return nil, f.err
}

type queryServiceFake struct {
	err    error
	filler string
	result *domain.QueryResult
}

func (f queryServiceFake) HandleQuery(_ context.Context, sessionID, query string, onFiller func(string)) (*domain.QueryResult, error) {
	if f.filler != "" && onFiller != nil {
		onFiller(f.filler)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.QueryResult{
		SessionID:     sessionID,
		OriginalQuery: query,
		Response:      "ok",
		Sources:       []domain.SourceRef{},
	}, nil
}

type docsErrFake struct {
	err error
}

func (f docsErrFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: "doc-1", Filename: "a", MimeType: "text/plain", StoragePath: "a", Status: domain.StatusReady}, nil
}

func postQuery(t *testing.T, handler http.Handler, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestQueryMapsInvalidInputTo400(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		nil,
		queryServiceFake{err: domain.WrapError(domain.ErrInvalidInput, "query", errors.New("empty query"))},
		docsErrFake{},
		nil,
	).Handler()

	res := postQuery(t, handler, "/v1/query", map[string]any{"session_id": "s1", "query": "test"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestQueryMapsSessionContentionTo409(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		nil,
		queryServiceFake{err: domain.WrapError(domain.ErrSessionContention, "query", errors.New("session s1"))},
		docsErrFake{},
		nil,
	).Handler()

	res := postQuery(t, handler, "/v1/query", map[string]any{"session_id": "s1", "query": "test"})
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestQueryMapsGenerationFailureTo502(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		nil,
		queryServiceFake{err: domain.WrapError(domain.ErrGenerationFailed, "answer", errors.New("model down"))},
		docsErrFake{},
		nil,
	).Handler()

	res := postQuery(t, handler, "/v1/query", map[string]any{"session_id": "s1", "query": "test"})
	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if strings.Contains(resp["error"], "model down") {
		t.Fatalf("upstream detail leaked to client: %q", resp["error"])
	}
	if resp["error"] == "" {
		t.Fatal("expected a generic error message")
	}
}

func TestQueryRejectsMissingFields(t *testing.T) {
	handler := NewRouter(config.Config{}, nil, queryServiceFake{}, docsErrFake{}, nil).Handler()

	res := postQuery(t, handler, "/v1/query", map[string]any{"query": "test"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("missing session_id expected 400, got %d", res.Code)
	}

	res = postQuery(t, handler, "/v1/query", map[string]any{"session_id": "s1", "query": "  "})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("blank query expected 400, got %d", res.Code)
	}
}

func TestQuerySuccessPayload(t *testing.T) {
	result := &domain.QueryResult{
		SessionID:      "s1",
		OriginalQuery:  "what is the warranty?",
		RewrittenQuery: "what is the warranty?",
		Response:       "The warranty lasts two years.",
		Sources: []domain.SourceRef{
			{ChunkID: "doc-1:0", DocumentID: "doc-1", Page: 3, Score: 0.91},
		},
		TTFBMillis:  42,
		TotalMillis: 900,
	}
	handler := NewRouter(config.Config{}, nil, queryServiceFake{result: result}, docsErrFake{}, nil).Handler()

	res := postQuery(t, handler, "/v1/query", map[string]any{"session_id": "s1", "query": "what is the warranty?"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var got map[string]any
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["response"] != "The warranty lasts two years." {
		t.Fatalf("unexpected response: %+v", got)
	}
	sources, ok := got["sources"].([]any)
	if !ok || len(sources) != 1 {
		t.Fatalf("expected one source, got %+v", got["sources"])
	}
	if _, present := got["DegradedStages"]; present {
		t.Fatalf("degraded stages must not leak into the payload")
	}
}

func TestGetDocumentByIDReturns404ForNotFound(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		nil,
		queryServiceFake{},
		docsErrFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=missing"))},
		nil,
	).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUploadMapsTemporaryErrorTo503(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		ingestErrFake{err: domain.WrapError(domain.ErrTemporary, "upload", errors.New("queue down"))},
		queryServiceFake{},
		docsErrFake{},
		nil,
	).Handler()

	body, contentType := multipartFile(t, "file.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatal("expected error message in response")
	}
	if strings.Contains(resp["error"], "queue down") {
		t.Fatalf("upstream detail leaked to client: %q", resp["error"])
	}
}
