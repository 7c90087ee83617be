package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbed(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/embed", r.URL.Path)

		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model

		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	c, err := NewOllama(context.Background(), ClientConfig{BaseURL: srv.URL, Model: "all-minilm"})
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", gotModel)
	assert.Equal(t, 3, c.Dimension())
	assert.Equal(t, "all-minilm", c.Name())

	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaStripsV1Suffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1}}})
	}))
	defer srv.Close()

	_, err := NewOllama(context.Background(), ClientConfig{BaseURL: srv.URL + "/v1", Model: "m"})
	require.NoError(t, err)
}

func TestOllamaRequiresModel(t *testing.T) {
	_, err := NewOllama(context.Background(), ClientConfig{})
	require.Error(t, err)
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllama(context.Background(), ClientConfig{BaseURL: srv.URL, Model: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOpenAIEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.5, -0.5}}},
		})
	}))
	defer srv.Close()

	c, err := NewOpenAI(context.Background(), ClientConfig{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "text-embedding-3-small",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Dimension())

	vec, err := c.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5}, vec)
}

func TestOpenAIEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	_, err := NewOpenAI(context.Background(), ClientConfig{BaseURL: srv.URL, Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embeddings")
}
