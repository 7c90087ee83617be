// Package chunker splits document text into overlapping word windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/hubenschmidt/go-vecstore/core"
)

const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// Chunk is one window of words from a document. Its JSON shape is the
// metadata entry persisted per index position.
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Index  int    `json:"chunk_index"`
}

// Chunker splits text into windows of size words, each window starting
// size-overlap words after the previous one.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. overlap must be smaller than size or the window
// would never advance.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", size, core.ErrInvalidConfig)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap %d: %w", overlap, core.ErrInvalidConfig)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d >= size %d: %w", overlap, size, core.ErrInvalidConfig)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a chunker with the standard 500/50 window.
func Default() *Chunker {
	c, _ := New(DefaultSize, DefaultOverlap)
	return c
}

// Size returns the window size in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the window overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }

// Split breaks text into overlapping chunks tagged with source.
// Whitespace-only text yields no chunks. The final window may be shorter
// than the configured size; it is still emitted.
func (c *Chunker) Split(text, source string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []Chunk
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, Chunk{
			Text:   strings.Join(words[start:end], " "),
			Source: source,
			Index:  len(chunks),
		})

		// The last window absorbs the tail; a further step would only
		// repeat words already covered.
		if end == len(words) {
			break
		}
	}

	return chunks
}
