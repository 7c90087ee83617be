package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hubenschmidt/go-vecstore/core"
)

// OpenAI embeds text through an OpenAI-compatible /v1/embeddings
// endpoint.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

// NewOpenAI creates an OpenAI-backed embedder and probes the model for
// its vector dimension.
func NewOpenAI(ctx context.Context, cfg ClientConfig) (*OpenAI, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai embedder requires a model: %w", core.ErrInvalidConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultClientConfig().Timeout
	}

	c := &OpenAI{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}

	vec, err := c.embed(ctx, "test")
	if err != nil {
		return nil, fmt.Errorf("probe embedding dimension: %w", err)
	}
	c.dim = len(vec)
	return c, nil
}

// Embed returns the embedding vector for a single input.
func (c *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
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
func (c *OpenAI) Dimension() int {
	return c.dim
}

// Name returns the model identifier.
func (c *OpenAI) Name() string {
	return c.model
}

func (c *OpenAI) embed(ctx context.Context, input string) ([]float32, error) {
	reqBody := map[string]any{
		"model": c.model,
		"input": input,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no embeddings in response")
	}
	return result.Data[0].Embedding, nil
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

var _ Embedder = (*OpenAI)(nil)
