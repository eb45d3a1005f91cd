// Package models defines core data structures for documents, chunks, and answers.
package models

import "time"

// Document records one ingested source file within a session.
type Document struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Filename   string    `json:"filename"`
	PageCount  int       `json:"page_count"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Chunk is a contiguous text span from one document page, the unit of retrieval.
// Offsets are rune offsets into the normalized page text. The embedding is nil
// until computed and is never mutated afterwards.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Page       int       `json:"page"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
}

// DocumentInput is the input for ingesting a document into a session.
// Either raw file content (base64, with the filename extension selecting the
// extractor) or pre-extracted page texts must be supplied.
type DocumentInput struct {
	Filename      string   `json:"filename"`
	ContentBase64 string   `json:"content_base64,omitempty"`
	Pages         []string `json:"pages,omitempty"`
}
