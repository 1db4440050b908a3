// Package extract produces plain text from uploaded document files. Kind is
// decided by file extension; unsupported extensions yield empty text rather
// than an error so non-textual files can still be ingested.
package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Service adapts the package functions to the extractor interface the
// pipeline services are injected with.
type Service struct{}

// New creates the extractor service.
func New() Service { return Service{} }

func (Service) Text(path string) (string, error) { return Text(path) }

func (Service) PageCount(path string) (int, error) { return PageCount(path) }

func (Service) ValidatePDF(path string) error { return ValidatePDF(path) }

// Kind identifies the extractor chosen for a file.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindNone Kind = "none"
)

// KindForPath derives the extractor kind from the file extension.
func KindForPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	default:
		return KindNone
	}
}

// Text extracts plain text from the file at path. Files that are neither PDF
// nor DOCX produce an empty string and no error. A parse failure on a
// supported kind is an error; the caller treats it as fatal for the request.
func Text(path string) (string, error) {
	switch KindForPath(path) {
	case KindPDF:
		return pdfText(path)
	case KindDOCX:
		return docxText(path)
	default:
		return "", nil
	}
}

func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text from %s: %w", filepath.Base(path), err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read pdf text from %s: %w", filepath.Base(path), err)
	}
	return buf.String(), nil
}

func docxText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat docx %s: %w", filepath.Base(path), err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("parse docx %s: %w", filepath.Base(path), err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if s, ok := item.(fmt.Stringer); ok {
			sb.WriteString(s.String())
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// PageCount returns the page count of a PDF file using relaxed validation,
// matching how uploads are sanity-checked before they reach Drive.
func PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count for %s: %w", filepath.Base(path), err)
	}
	return count, nil
}

// ValidatePDF checks that the file is a readable PDF. Validation is relaxed:
// real-world scans frequently bend the PDF standard but remain processable.
func ValidatePDF(path string) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, cfg); err != nil {
		return fmt.Errorf("validate pdf %s: %w", filepath.Base(path), err)
	}
	return nil
}
