package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hubenschmidt/go-vecstore"
)

// IngestDocumentTool chunks, embeds, and stores a document.
type IngestDocumentTool struct {
	store *vecstore.Store
}

func NewIngestDocumentTool(store *vecstore.Store) *IngestDocumentTool {
	return &IngestDocumentTool{store: store}
}

func (t *IngestDocumentTool) Name() string {
	return "ingest_document"
}

func (t *IngestDocumentTool) Description() string {
	return "Ingest a document into the vector store. The document will be chunked, embedded, and stored for later retrieval."
}

func (t *IngestDocumentTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"document": {
				"type": "string",
				"description": "The text content of the document to ingest"
			},
			"source": {
				"type": "string",
				"description": "Optional source identifier for the document (e.g., filename, URL)",
				"default": "unknown"
			}
		},
		"required": ["document"]
	}`)
}

func (t *IngestDocumentTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var req struct {
		Document string `json:"document"`
		Source   string `json:"source"`
	}
	if err := json.Unmarshal(args, &req); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	if req.Source == "" {
		req.Source = "unknown"
	}

	result, err := t.store.Ingest(ctx, req.Document, req.Source)
	if err != nil {
		return "", fmt.Errorf("ingest: %w", err)
	}

	return fmt.Sprintf("Successfully ingested document from '%s'.\nCreated %d chunks.\nTotal documents in store: %d",
		req.Source, result.ChunksAdded, result.TotalChunks), nil
}

var _ Tool = (*IngestDocumentTool)(nil)
