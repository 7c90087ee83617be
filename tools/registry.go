package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/hubenschmidt/go-vecstore/core"
)

type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns wire descriptions of every registered tool, sorted
// by name.
func (r *Registry) Schemas() []Schema {
	names := r.List()
	schemas := make([]Schema, 0, len(names))
	for _, name := range names {
		if t, ok := r.Get(name); ok {
			schemas = append(schemas, ToSchema(t))
		}
	}
	return schemas
}

// Execute looks up a tool by name and runs it.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("tool %q: %w", name, core.ErrToolNotFound)
	}
	return t.Execute(ctx, args)
}
