package server

import (
	"encoding/json"

	"github.com/hubenschmidt/go-vecstore"
	"github.com/hubenschmidt/go-vecstore/catalog"
)

type IngestRequest struct {
	Document string `json:"document"`
	Source   string `json:"source,omitempty"`
}

type IngestResponse struct {
	Success     bool `json:"success"`
	ChunksAdded int  `json:"chunks_added"`
	TotalChunks int  `json:"total_chunks"`
}

type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type QueryResponse struct {
	Results []vecstore.Result `json:"results"`
}

type DocumentsResponse struct {
	Documents []catalog.Document `json:"documents"`
	Total     int                `json:"total"`
}

type ToolExecuteRequest struct {
	Arguments json.RawMessage `json:"arguments"`
}

type ToolExecuteResponse struct {
	Result string `json:"result"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
