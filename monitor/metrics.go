// Package monitor collects operation metrics for a vector store.
package monitor

import "time"

// OpMetrics aggregates one operation kind.
type OpMetrics struct {
	Count         int64         `json:"count"`
	Items         int64         `json:"items"`
	TotalDuration time.Duration `json:"total_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
}

// Avg returns the mean duration per operation.
func (m OpMetrics) Avg() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.Count)
}

// Metrics is a snapshot of everything recorded since the collector was
// created or reset. Ingest items count chunks added; query items count
// returned results.
type Metrics struct {
	Ingest    OpMetrics        `json:"ingest"`
	Query     OpMetrics        `json:"query"`
	Errors    map[string]int64 `json:"errors,omitempty"`
	StartTime time.Time        `json:"start_time"`
}
