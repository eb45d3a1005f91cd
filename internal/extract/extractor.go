// Package extract provides page-wise text extraction from uploaded documents.
package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoText is returned when a document yields no extractable text (corrupt
// file, scanned image PDF, empty upload). It is an ingestion error, never a
// process failure.
var ErrNoText = errors.New("document contains no extractable text")

// Extractor extracts per-page plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages extracts ordered page texts from content based on the given
// extension (with leading dot). PDFs yield one entry per page, spreadsheets
// one per sheet, everything else a single page (plain text splits on form
// feeds). Returns ErrNoText when nothing non-empty comes out.
func (e *Extractor) ExtractPages(content []byte, ext string) ([]string, error) {
	var (
		pages []string
		err   error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		pages, err = extractPDFPages(content)
	case ".xlsx":
		pages, err = extractExcelSheets(content)
	case ".docx":
		pages, err = extractDOCX(content)
	default:
		// Reports and bills also arrive as pasted plain text.
		pages, err = extractPlainPages(content)
	}
	if err != nil {
		return nil, err
	}
	nonEmpty := false
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			nonEmpty = true
			break
		}
	}
	if !nonEmpty {
		return nil, fmt.Errorf("%w (%s)", ErrNoText, strings.TrimPrefix(ext, "."))
	}
	return pages, nil
}
