package monitor

import (
	"sync"
	"time"
)

// Collector receives operation outcomes from a store.
type Collector interface {
	RecordIngest(chunks int, d time.Duration)
	RecordQuery(results int, d time.Duration)
	RecordError(op string)
	Snapshot() Metrics
}

// InMemory accumulates metrics behind a mutex.
type InMemory struct {
	mu        sync.RWMutex
	ingest    OpMetrics
	query     OpMetrics
	errors    map[string]int64
	startTime time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		errors:    make(map[string]int64),
		startTime: time.Now(),
	}
}

func (c *InMemory) RecordIngest(chunks int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	record(&c.ingest, int64(chunks), d)
}

func (c *InMemory) RecordQuery(results int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	record(&c.query, int64(results), d)
}

func (c *InMemory) RecordError(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[op]++
}

func (c *InMemory) Snapshot() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	errs := make(map[string]int64, len(c.errors))
	for k, v := range c.errors {
		errs[k] = v
	}
	return Metrics{
		Ingest:    c.ingest,
		Query:     c.query,
		Errors:    errs,
		StartTime: c.startTime,
	}
}

func (c *InMemory) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingest = OpMetrics{}
	c.query = OpMetrics{}
	c.errors = make(map[string]int64)
	c.startTime = time.Now()
}

func record(m *OpMetrics, items int64, d time.Duration) {
	m.Count++
	m.Items += items
	m.TotalDuration += d
	if d > m.MaxDuration {
		m.MaxDuration = d
	}
}

// NoOp discards everything recorded.
type NoOp struct{}

func NewNoOp() *NoOp { return &NoOp{} }

func (NoOp) RecordIngest(chunks int, d time.Duration) {}
func (NoOp) RecordQuery(results int, d time.Duration) {}
func (NoOp) RecordError(op string)                    {}
func (NoOp) Snapshot() Metrics                        { return Metrics{} }

var (
	_ Collector = (*InMemory)(nil)
	_ Collector = NoOp{}
)
