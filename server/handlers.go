package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/hubenschmidt/go-vecstore"
	"github.com/hubenschmidt/go-vecstore/catalog"
	"github.com/hubenschmidt/go-vecstore/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.store.Ingest(r.Context(), req.Document, req.Source)
	if err != nil {
		log.Printf("[server] ingest failed: %v", err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, IngestResponse{
		Success:     true,
		ChunksAdded: result.ChunksAdded,
		TotalChunks: result.TotalChunks,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := s.store.Query(r.Context(), req.Query, req.TopK)
	if err != nil {
		log.Printf("[server] query failed: %v", err)
		writeError(w, statusFor(err), err)
		return
	}
	if results == nil {
		results = []vecstore.Result{}
	}

	writeJSON(w, QueryResponse{Results: results})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	cat := s.store.Catalog()
	if cat == nil {
		writeJSON(w, DocumentsResponse{Documents: []catalog.Document{}})
		return
	}

	var (
		docs []catalog.Document
		err  error
	)
	if source := r.URL.Query().Get("source"); source != "" {
		docs, err = cat.BySource(r.Context(), source)
	} else {
		docs, err = cat.List(r.Context())
	}
	if err != nil {
		log.Printf("[server] list documents failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if docs == nil {
		docs = []catalog.Document{}
	}

	writeJSON(w, DocumentsResponse{Documents: docs, Total: len(docs)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Stats())
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.registry.Schemas())
}

func (s *Server) handleToolExecute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req ToolExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.registry.Execute(r.Context(), name, req.Arguments)
	if err != nil {
		log.Printf("[server] tool %s failed: %v", name, err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, ToolExecuteResponse{Result: result})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidConfig), errors.Is(err, core.ErrDimensionMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}
