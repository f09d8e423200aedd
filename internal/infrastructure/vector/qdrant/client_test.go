package qdrant

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/voxrag/voxrag/internal/core/domain"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(context.Context, []string) ([][]float32, error) { return nil, nil }

func (s *stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return s.vector, s.err
}

func chunksFixture() []domain.ChunkContent {
	return []domain.ChunkContent{
		{ChunkID: "doc-1:0", DocumentID: "doc-1", Page: 1, Text: "a"},
		{ChunkID: "doc-1:1", DocumentID: "doc-1", Page: 2, Text: "b"},
	}
}

func TestIndexChunksEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks", &stubEmbedder{})
	doc := &domain.Document{ID: "doc-1", Filename: "a.txt"}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.IndexChunks(context.Background(), doc, chunksFixture(), vectors); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), doc, chunksFixture(), vectors); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestIndexChunksUsesDeterministicPointIDs(t *testing.T) {
	var bodies [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				t.Errorf("read upsert body: %v", err)
				return
			}
			bodies = append(bodies, raw)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks", &stubEmbedder{})
	doc := &domain.Document{ID: "doc-1"}
	vectors := [][]float32{{0.1}, {0.2}}

	if err := client.IndexChunks(context.Background(), doc, chunksFixture(), vectors); err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), doc, chunksFixture(), vectors); err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if len(bodies) != 2 || string(bodies[0]) != string(bodies[1]) {
		t.Fatalf("expected identical upsert bodies for identical chunks")
	}
}

func TestSimilaritySearchMapsPayloadToCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.91,"payload":{"chunk_id":"doc-1:0","doc_id":"doc-1","page":1}},
			{"score":0.85,"payload":{"chunk_id":"doc-1:4","doc_id":"doc-1","page":3}},
			{"score":0.50,"payload":{"doc_id":"orphan"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks", &stubEmbedder{vector: []float32{0.1, 0.2}})
	hits, err := client.SimilaritySearch(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits (payload without chunk_id dropped), got %d", len(hits))
	}
	if hits[0].ChunkID != "doc-1:0" || hits[0].Score != 0.91 || hits[0].Source != domain.SourceVector {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
}

func TestSimilaritySearchEmbedError(t *testing.T) {
	client := New("http://127.0.0.1:0", "chunks", &stubEmbedder{err: errors.New("embed down")})
	_, err := client.SimilaritySearch(context.Background(), "query", 10)
	if err == nil || !strings.Contains(err.Error(), "embed query") {
		t.Fatalf("expected embed error, got %v", err)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks", &stubEmbedder{})
	doc := &domain.Document{ID: "doc-1"}
	err := client.IndexChunks(context.Background(), doc, chunksFixture()[:1], [][]float32{{0.1, 0.2}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
