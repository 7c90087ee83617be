package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hubenschmidt/go-vecstore/catalog"
)

// ListDocumentsTool returns the catalog of ingested documents.
type ListDocumentsTool struct {
	catalog catalog.Store
}

func NewListDocumentsTool(c catalog.Store) *ListDocumentsTool {
	return &ListDocumentsTool{catalog: c}
}

func (t *ListDocumentsTool) Name() string {
	return "list_documents"
}

func (t *ListDocumentsTool) Description() string {
	return "List the documents that have been ingested into the vector store, with chunk and word counts."
}

func (t *ListDocumentsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"source": {
				"type": "string",
				"description": "Optional source identifier to filter by"
			}
		}
	}`)
}

func (t *ListDocumentsTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var req struct {
		Source string `json:"source"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &req); err != nil {
			return "", fmt.Errorf("parse args: %w", err)
		}
	}

	var (
		docs []catalog.Document
		err  error
	)
	if req.Source != "" {
		docs, err = t.catalog.BySource(ctx, req.Source)
	} else {
		docs, err = t.catalog.List(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}

	if docs == nil {
		docs = []catalog.Document{}
	}
	out, err := json.MarshalIndent(map[string]any{
		"documents": docs,
		"total":     len(docs),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal documents: %w", err)
	}
	return string(out), nil
}

var _ Tool = (*ListDocumentsTool)(nil)
