package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimension matches the output width of the small sentence
// embedding models this store is typically paired with.
const DefaultHashDimension = 384

// Hash is a deterministic feature-hashing embedder. Each token is
// hashed into a bucket with a hash-derived sign, and the result is
// normalized to unit length. It needs no model runtime, which makes it
// the default for offline stores and for tests.
type Hash struct {
	dim int
}

// NewHash creates a hash embedder. A dim of zero or less selects
// DefaultHashDimension.
func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &Hash{dim: dim}
}

// Embed hashes the tokens of text into a normalized vector. Identical
// text always yields an identical vector.
func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dim)
	for _, tok := range tokenize(text) {
		f := fnv.New32a()
		f.Write([]byte(tok))
		sum := f.Sum32()

		bucket := int(sum>>1) % h.dim
		if sum&1 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}
	normalize(vec)
	return vec, nil
}

// Dimension returns the configured vector length.
func (h *Hash) Dimension() int {
	return h.dim
}

// Name identifies the embedder and its dimension.
func (h *Hash) Name() string {
	return fmt.Sprintf("hash-%d", h.dim)
}

func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

var _ Embedder = (*Hash)(nil)
