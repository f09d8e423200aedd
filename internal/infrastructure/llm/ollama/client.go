package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voxrag/voxrag/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel, embedModel string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "ollama_embed"); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client      *Client
	temperature float64
	maxTokens   int
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client, temperature: 0.2}
}

// WithSampling overrides the generation sampling options. maxTokens <= 0
// leaves the model default in place.
func (g *Generator) WithSampling(temperature float64, maxTokens int) *Generator {
	g.temperature = temperature
	g.maxTokens = maxTokens
	return g
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	options := map[string]any{
		"temperature": g.temperature,
	}
	if g.maxTokens > 0 {
		options["num_predict"] = g.maxTokens
	}
	reqBody := map[string]any{
		"model":   g.client.genModel,
		"prompt":  prompt,
		"stream":  false,
		"options": options,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := g.client.postJSON(ctx, "/api/generate", reqBody, &response, "ollama_generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
