// Package ingest provides document chunking and the session ingestion pipeline.
package ingest

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/arogyamitra/medrag/internal/models"
)

// ErrEmptyText is returned when there is nothing to chunk.
var ErrEmptyText = errors.New("text is empty")

// ErrChunkOverlap is returned when the overlap is not smaller than the max
// chunk size, which would make chunking loop forever.
var ErrChunkOverlap = errors.New("chunk overlap must be smaller than max size")

// Chunker splits page text into overlapping character-bounded spans, cutting
// at sentence or paragraph boundaries when one falls inside the tolerance
// window before the hard size limit.
type Chunker struct {
	maxSize int
	overlap int
	window  int
}

// NewChunker creates a chunker with the given max size and overlap (in runes).
// The boundary tolerance window defaults to a sixth of the max size.
func NewChunker(maxSize, overlap int) *Chunker {
	return &Chunker{
		maxSize: maxSize,
		overlap: overlap,
		window:  maxSize / 6,
	}
}

// NewChunkerWindow is NewChunker with an explicit boundary tolerance window.
func NewChunkerWindow(maxSize, overlap, window int) *Chunker {
	c := NewChunker(maxSize, overlap)
	if window > 0 {
		c.window = window
	}
	return c
}

// Chunk splits text into spans covering every rune with no gaps, where each
// adjacent pair shares exactly the configured overlap. Chunk ids are unique
// within a session: <docID>_p<page>_<n>.
func (c *Chunker) Chunk(docID string, page int, text string) ([]models.Chunk, error) {
	if c.maxSize <= c.overlap {
		return nil, ErrChunkOverlap
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	runes := []rune(text)
	var chunks []models.Chunk
	start := 0
	for n := 0; ; n++ {
		end := start + c.maxSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.splitPoint(runes, start, end)
		}
		chunks = append(chunks, models.Chunk{
			ID:         fmt.Sprintf("%s_p%d_%d", docID, page, n),
			DocumentID: docID,
			Page:       page,
			Start:      start,
			End:        end,
			Text:       string(runes[start:end]),
		})
		if end >= len(runes) {
			break
		}
		start = end - c.overlap
	}
	return chunks, nil
}

// splitPoint returns the cut position for a chunk starting at start with hard
// cutoff hard: the boundary nearest the cutoff within the tolerance window, or
// the cutoff itself when no boundary exists there. The cut always advances
// past start+overlap so chunking terminates.
func (c *Chunker) splitPoint(runes []rune, start, hard int) int {
	lo := hard - c.window
	if min := start + c.overlap + 1; lo < min {
		lo = min
	}
	for i := hard; i > lo; i-- {
		if isBoundary(runes, i) {
			return i
		}
	}
	return hard
}

// isBoundary reports whether position i (an exclusive span end) sits just
// after a sentence terminator followed by whitespace, or just after a newline.
func isBoundary(runes []rune, i int) bool {
	if i <= 0 || i >= len(runes) {
		return false
	}
	prev := runes[i-1]
	if prev == '\n' {
		return true
	}
	if (prev == '.' || prev == '!' || prev == '?') && unicode.IsSpace(runes[i]) {
		return true
	}
	return false
}
