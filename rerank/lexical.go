// Package rerank provides second-stage scorers for query results.
package rerank

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/hubenschmidt/go-vecstore"
)

// Lexical rescores candidates by token overlap with the query, blended
// with the inverse vector distance. It is deterministic: equal scores
// keep their incoming order.
type Lexical struct {
	// OverlapWeight balances token overlap against vector distance,
	// in [0, 1]. Zero value selects the default.
	OverlapWeight float64
}

const defaultOverlapWeight = 0.5

// NewLexical creates a reranker with the default weighting.
func NewLexical() *Lexical {
	return &Lexical{OverlapWeight: defaultOverlapWeight}
}

// Rerank returns a reordered copy of results, best first. The input
// slice is never mutated.
func (l *Lexical) Rerank(ctx context.Context, query string, results []vecstore.Result) ([]vecstore.Result, error) {
	if len(results) <= 1 {
		return append([]vecstore.Result(nil), results...), nil
	}

	w := l.OverlapWeight
	if w == 0 {
		w = defaultOverlapWeight
	}

	qtokens := tokenSet(query)

	type scored struct {
		r     vecstore.Result
		score float64
	}
	out := make([]scored, len(results))
	for i, r := range results {
		out[i] = scored{r: r, score: w*overlap(qtokens, r.Text) + (1-w)/(1+float64(r.Distance))}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})

	ranked := make([]vecstore.Result, len(out))
	for i, s := range out {
		ranked[i] = s.r
	}
	return ranked, nil
}

// overlap is the fraction of query tokens appearing in text.
func overlap(qtokens map[string]struct{}, text string) float64 {
	if len(qtokens) == 0 {
		return 0
	}
	seen := tokenSet(text)
	hits := 0
	for tok := range qtokens {
		if _, ok := seen[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(qtokens))
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			set[cur.String()] = struct{}{}
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return set
}

var _ vecstore.Reranker = (*Lexical)(nil)
