// Package ingest turns documents into embedded, searchable chunks.
package ingest

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target chunk length in runes.
	DefaultChunkSize = 1000

	// DefaultOverlap is how many runes consecutive chunks share.
	DefaultOverlap = 200

	// boundarySearchRatio bounds how far back from the chunk end the
	// chunker looks for a sentence boundary. Below 70% of the target
	// size a hard cut is used instead.
	boundarySearchRatio = 0.7
)

// Chunker splits text into overlapping chunks, preferring to cut at
// sentence boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Non-positive arguments fall back to the
// defaults; overlap is capped below chunkSize.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split breaks text into chunks. Whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		cut := c.findBoundary(runes, start, end)
		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))

		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	// Drop empty chunks produced by trimming.
	out := chunks[:0]
	for _, ch := range chunks {
		if ch != "" {
			out = append(out, ch)
		}
	}
	return out
}

// findBoundary looks backwards from end for a sentence-ending position.
// The search stops at 70% of the chunk size; without a boundary there the
// chunk is cut hard at end.
func (c *Chunker) findBoundary(runes []rune, start, end int) int {
	minCut := start + int(float64(c.chunkSize)*boundarySearchRatio)
	for i := end - 1; i >= minCut; i-- {
		if isSentenceEnd(runes[i]) {
			return i + 1
		}
	}
	// Fall back to the last whitespace so words are not cut mid-way.
	for i := end - 1; i >= minCut; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '。', '！', '？':
		return true
	}
	return false
}
