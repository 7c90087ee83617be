package index

import "github.com/viant/vec/search"

// Metric selects the distance function used by a Flat index.
type Metric int

const (
	// L2Squared ranks by squared Euclidean distance, sum((q_i - v_i)^2).
	// The square root is never taken: ranking is unaffected and callers
	// must not treat the value as a true metric distance.
	L2Squared Metric = iota

	// Cosine ranks by cosine distance, 1 - cos(q, v).
	Cosine
)

func (m Metric) String() string {
	switch m {
	case L2Squared:
		return "l2"
	case Cosine:
		return "cosine"
	default:
		return "unknown"
	}
}

// ParseMetric maps a config string to a Metric.
func ParseMetric(s string) (Metric, bool) {
	switch s {
	case "", "l2", "l2_squared":
		return L2Squared, true
	case "cosine":
		return Cosine, true
	default:
		return L2Squared, false
	}
}

func l2Squared(q, v []float32) float32 {
	var sum float32
	for i := range q {
		d := q[i] - v[i]
		sum += d * d
	}
	return sum
}

func cosineDistance(q, v []float32) float32 {
	return search.Float32s(q).CosineDistance(v)
}
