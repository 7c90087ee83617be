package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hubenschmidt/go-vecstore"
)

// QueryRAGStoreTool searches the store for chunks similar to a query.
type QueryRAGStoreTool struct {
	store *vecstore.Store
}

func NewQueryRAGStoreTool(store *vecstore.Store) *QueryRAGStoreTool {
	return &QueryRAGStoreTool{store: store}
}

func (t *QueryRAGStoreTool) Name() string {
	return "query_rag_store"
}

func (t *QueryRAGStoreTool) Description() string {
	return "Query the vector store to retrieve relevant document chunks based on semantic similarity."
}

func (t *QueryRAGStoreTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "The search query text"
			},
			"top_k": {
				"type": "integer",
				"description": "Number of top results to return",
				"default": 3
			}
		},
		"required": ["query"]
	}`)
}

func (t *QueryRAGStoreTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.Unmarshal(args, &req); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}

	results, err := t.store.Query(ctx, req.Query, req.TopK)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}

	return FormatResults(results), nil
}

// FormatResults renders query results in the store's canonical text
// form: ranked entries with source, distance, and a text preview.
func FormatResults(results []vecstore.Result) string {
	if len(results) == 0 {
		return "No results found. The vector store may be empty."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d relevant chunks:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. Source: %s\n", i+1, r.Source)
		fmt.Fprintf(&sb, "   Distance: %.4f\n", r.Distance)
		fmt.Fprintf(&sb, "   Text: %s\n\n", preview(r.Text, 200))
	}
	return sb.String()
}

// preview truncates text to at most n bytes, backing up to a rune
// boundary so a multi-byte character is never split.
func preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

var _ Tool = (*QueryRAGStoreTool)(nil)
