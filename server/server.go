// Package server exposes a vector store over an HTTP JSON API.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/hubenschmidt/go-vecstore"
	"github.com/hubenschmidt/go-vecstore/tools"
)

// Config configures a new Server instance.
type Config struct {
	Store    *vecstore.Store
	Registry *tools.Registry // optional; built from the store when nil
}

// Server is an HTTP server over a vector store and its tool registry.
type Server struct {
	store    *vecstore.Store
	registry *tools.Registry
}

// New creates a Server. When no registry is supplied, the standard
// tools are registered against the store.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("server requires a store")
	}

	registry := cfg.Registry
	if registry == nil {
		registry = tools.NewRegistry()
		registry.Register(tools.NewIngestDocumentTool(cfg.Store))
		registry.Register(tools.NewQueryRAGStoreTool(cfg.Store))
		if cat := cfg.Store.Catalog(); cat != nil {
			registry.Register(tools.NewListDocumentsTool(cat))
		}
	}
	log.Printf("[server] Registered tools: %v", registry.List())

	return &Server{
		store:    cfg.Store,
		registry: registry,
	}, nil
}

// Handler returns an http.Handler for the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /documents", s.handleDocuments)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("POST /tools/{name}/execute", s.handleToolExecute)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
