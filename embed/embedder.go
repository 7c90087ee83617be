// Package embed turns text into fixed-dimension embedding vectors.
package embed

import "context"

// Embedder maps text to a fixed-length vector. A given embedder always
// produces vectors of the same dimension, and the same text always
// produces the same vector.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector length this embedder produces.
	Dimension() int

	// Name identifies the embedding model, recorded alongside the store.
	Name() string
}

// ClientConfig configures an HTTP-backed embedder.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout int // seconds
}

// DefaultClientConfig returns the baseline HTTP client settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout: 60,
	}
}
