package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/arogyamitra/medrag/internal/embedding"
	"github.com/arogyamitra/medrag/internal/extract"
	"github.com/arogyamitra/medrag/internal/models"
	"github.com/arogyamitra/medrag/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoInput is returned when a document input carries neither content nor
// pre-extracted pages.
var ErrNoInput = errors.New("document input has no content")

// Ingestor runs the write path: extract pages, chunk, embed, insert into the
// session's index. A failure aborts only the document being ingested; chunks
// are inserted only after every page embedded, so queries never observe a
// half-ingested document as complete.
type Ingestor struct {
	embedder  embedding.Embedder
	chunker   *Chunker
	extractor *extract.Extractor
	logger    *zap.Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithLogger sets a logger for ingestion events.
func WithLogger(l *zap.Logger) IngestorOption {
	return func(ing *Ingestor) { ing.logger = l }
}

// NewIngestor creates an ingestor with the given dependencies. extractor may
// be nil when callers always supply pre-extracted pages.
func NewIngestor(embedder embedding.Embedder, chunker *Chunker, extractor *extract.Extractor, opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		embedder:  embedder,
		chunker:   chunker,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest adds one document to the session and returns its record. The
// session's write lock serializes concurrent ingestions into the same session.
func (ing *Ingestor) Ingest(ctx context.Context, sess *session.Session, input *models.DocumentInput) (*models.Document, error) {
	pages, err := ing.resolvePages(input)
	if err != nil {
		return nil, err
	}

	sess.LockWrite()
	defer sess.UnlockWrite()

	docID := uuid.New().String()
	var chunks []models.Chunk
	for p, pageText := range pages {
		norm := NormalizePage(pageText)
		if norm == "" {
			continue
		}
		pageChunks, err := ing.chunker.Chunk(docID, p+1, norm)
		if err != nil {
			return nil, fmt.Errorf("chunk page %d: %w", p+1, err)
		}
		chunks = append(chunks, pageChunks...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", input.Filename, extract.ErrNoText)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed document %s: %w", input.Filename, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(chunks))
	}

	for i := range chunks {
		if err := sess.Index().Insert(chunks[i], vectors[i]); err != nil {
			return nil, fmt.Errorf("index chunk %s: %w", chunks[i].ID, err)
		}
	}

	doc := &models.Document{
		ID:         docID,
		SessionID:  sess.ID(),
		Filename:   input.Filename,
		PageCount:  len(pages),
		IngestedAt: time.Now(),
	}
	sess.AddDocument(doc)
	sess.Touch(time.Now())

	if ing.logger != nil {
		ing.logger.Info("document ingested",
			zap.String("session_id", sess.ID()),
			zap.String("document_id", docID),
			zap.String("filename", input.Filename),
			zap.Int("pages", len(pages)),
			zap.Int("chunks", len(chunks)),
		)
	}
	return doc, nil
}

// resolvePages returns the page texts for input, extracting from raw content
// when no pre-extracted pages are given.
func (ing *Ingestor) resolvePages(input *models.DocumentInput) ([]string, error) {
	if len(input.Pages) > 0 {
		return input.Pages, nil
	}
	if input.ContentBase64 == "" {
		return nil, ErrNoInput
	}
	if ing.extractor == nil {
		return nil, errors.New("no extractor configured for raw content")
	}
	content, err := base64.StdEncoding.DecodeString(input.ContentBase64)
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return ing.extractor.ExtractPages(content, filepath.Ext(input.Filename))
}
