package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestChunker_CoverageAndOverlap(t *testing.T) {
	text := strings.Repeat("The patient was admitted with acute symptoms. ", 40)
	text = strings.TrimSpace(text)
	c := NewChunker(200, 30)
	chunks, err := c.Chunk("doc1", 1, text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	runes := []rune(text)
	if chunks[0].Start != 0 {
		t.Errorf("first chunk starts at %d", chunks[0].Start)
	}
	if chunks[len(chunks)-1].End != len(runes) {
		t.Errorf("last chunk ends at %d, want %d", chunks[len(chunks)-1].End, len(runes))
	}
	for i, ch := range chunks {
		if string(runes[ch.Start:ch.End]) != ch.Text {
			t.Errorf("chunk %d text does not match its offsets", i)
		}
		if ch.End-ch.Start > 200 {
			t.Errorf("chunk %d exceeds max size: %d", i, ch.End-ch.Start)
		}
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		if ch.Start != prev.End-30 {
			t.Errorf("chunk %d: overlap is %d, want exactly 30", i, prev.End-ch.Start)
		}
	}
}

func TestChunker_SentenceBoundaryPreferred(t *testing.T) {
	// A sentence ends inside the tolerance window before the hard cutoff.
	text := strings.Repeat("word ", 30) + "End of sentence. " + strings.Repeat("more ", 30)
	c := NewChunkerWindow(170, 20, 50)
	chunks, err := c.Chunk("d", 1, text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(strings.TrimRight(chunks[0].Text, " "), "End of sentence.") {
		t.Errorf("first chunk should end at the sentence boundary, got ...%q", tail(chunks[0].Text, 30))
	}
}

func TestChunker_HardCutWithoutBoundary(t *testing.T) {
	text := strings.Repeat("x", 500)
	c := NewChunker(100, 10)
	chunks, err := c.Chunk("d", 1, text)
	if err != nil {
		t.Fatal(err)
	}
	for i, ch := range chunks[:len(chunks)-1] {
		if ch.End-ch.Start != 100 {
			t.Errorf("chunk %d: boundary-free text should hard-cut at 100, got %d", i, ch.End-ch.Start)
		}
	}
}

func TestChunker_SingleChunk(t *testing.T) {
	c := NewChunker(100, 10)
	chunks, err := c.Chunk("d", 2, "Short report.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ID != "d_p2_0" {
		t.Errorf("chunk id %q", chunks[0].ID)
	}
	if chunks[0].Page != 2 {
		t.Errorf("page %d", chunks[0].Page)
	}
}

func TestChunker_Errors(t *testing.T) {
	c := NewChunker(100, 10)
	if _, err := c.Chunk("d", 1, "   \n\t  "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	bad := NewChunker(10, 10)
	if _, err := bad.Chunk("d", 1, "some text"); !errors.Is(err, ErrChunkOverlap) {
		t.Errorf("expected ErrChunkOverlap, got %v", err)
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
