package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
)

// pointNamespace makes qdrant point ids a deterministic function of the
// chunk id, so re-indexing a document overwrites its old points.
var pointNamespace = uuid.MustParse("9f2f27e6-7f07-4e41-9bd6-2c4a0cbb2ff3")

type Client struct {
	baseURL    string
	collection string
	embedder   ports.Embedder
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string, embedder ports.Embedder) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.ChunkContent, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:     uuid.NewSHA1(pointNamespace, []byte(chunk.ChunkID)).String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"chunk_id": chunk.ChunkID,
				"doc_id":   chunk.DocumentID,
				"page":     chunk.Page,
			},
		})
	}

	var response struct{}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.send(ctx, http.MethodPut, url, map[string]any{"points": points}, &response, "upsert")
}

// DeleteDocument removes all points belonging to the document.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "doc_id", "match": map[string]any{"value": documentID}},
			},
		},
	}

	var response struct{}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	return c.send(ctx, http.MethodPost, url, reqBody, &response, "delete")
}

// SimilaritySearch embeds the query text and returns the closest chunk
// ids ordered by cosine similarity descending.
func (c *Client) SimilaritySearch(ctx context.Context, query string, limit int) ([]domain.ScoredCandidate, error) {
	queryVector, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.send(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.ScoredCandidate, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		chunkID := getStringPayload(r.Payload, "chunk_id")
		if chunkID == "" {
			continue
		}
		out = append(out, domain.ScoredCandidate{
			ChunkID: chunkID,
			Score:   r.Score,
			Source:  domain.SourceVector,
		})
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, method, url string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
