package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hubenschmidt/go-vecstore/core"
)

// Ollama embeds text through Ollama's native embedding API.
type Ollama struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

// NewOllama creates an Ollama-backed embedder and probes the model for
// its vector dimension.
func NewOllama(ctx context.Context, cfg ClientConfig) (*Ollama, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama embedder requires a model: %w", core.ErrInvalidConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	host := strings.TrimSuffix(baseURL, "/")
	host = strings.TrimSuffix(host, "/v1")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultClientConfig().Timeout
	}

	c := &Ollama{
		baseURL: host,
		model:   cfg.Model,
		client:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}

	// Probe the model once so the dimension is fixed before any chunk
	// is embedded.
	vec, err := c.embed(ctx, "test")
	if err != nil {
		return nil, fmt.Errorf("probe embedding dimension: %w", err)
	}
	c.dim = len(vec)
	return c, nil
}

// Embed returns the embedding vector for a single input.
func (c *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != c.dim {
		return nil, fmt.Errorf("model %s returned %d dimensions, expected %d: %w",
			c.model, len(vec), c.dim, core.ErrDimensionMismatch)
	}
	return vec, nil
}

// Dimension returns the probed vector length.
func (c *Ollama) Dimension() int {
	return c.dim
}

// Name returns the model identifier.
func (c *Ollama) Name() string {
	return c.model
}

func (c *Ollama) embed(ctx context.Context, input string) ([]float32, error) {
	reqBody := map[string]any{
		"model": c.model,
		"input": input,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings in response")
	}
	return result.Embeddings[0], nil
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

var _ Embedder = (*Ollama)(nil)
