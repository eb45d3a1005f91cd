package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()

	pages, err := e.ExtractPages([]byte("single page of notes"), ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0] != "single page of notes" {
		t.Errorf("pages = %q", pages)
	}
}

func TestExtractPlainTextFormFeeds(t *testing.T) {
	e := NewExtractor()

	pages, err := e.ExtractPages([]byte("page one\fpage two\fpage three"), ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[1] != "page two" {
		t.Errorf("pages[1] = %q", pages[1])
	}
}

func TestExtractPlainTextInvalidUTF8(t *testing.T) {
	e := NewExtractor()

	pages, err := e.ExtractPages([]byte{'o', 'k', 0xff, 0xfe, '!'}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if !bytes.Contains([]byte(pages[0]), []byte("ok")) {
		t.Errorf("pages[0] = %q", pages[0])
	}
}

func TestExtractNoText(t *testing.T) {
	e := NewExtractor()

	if _, err := e.ExtractPages([]byte("   \n\t  "), ".txt"); !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText, got %v", err)
	}
	if _, err := e.ExtractPages(nil, ".txt"); !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText for empty content, got %v", err)
	}
}

func TestExtractExcelSheets(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Item", "Amount"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Consultation", "500"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Labs"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Labs", "A1", &[]interface{}{"HbA1c", "7.2"}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	pages, err := NewExtractor().ExtractPages(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want one per sheet", len(pages))
	}
	if !bytes.Contains([]byte(pages[0]), []byte("Consultation\t500")) {
		t.Errorf("sheet 1 = %q", pages[0])
	}
	if !bytes.Contains([]byte(pages[1]), []byte("HbA1c\t7.2")) {
		t.Errorf("sheet 2 = %q", pages[1])
	}
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Write([]byte(`<w:document><w:body>` +
		`<w:p><w:r><w:t>Discharge summary</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">for the patient</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	if err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	pages, err := NewExtractor().ExtractPages(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0] != "Discharge summary for the patient" {
		t.Errorf("pages[0] = %q", pages[0])
	}
}

func TestExtractDOCXNotAZip(t *testing.T) {
	if _, err := NewExtractor().ExtractPages([]byte("plain bytes"), ".docx"); err == nil {
		t.Error("expected an error for non-zip content")
	}
}
