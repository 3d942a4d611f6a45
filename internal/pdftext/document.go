// Package pdftext reads positioned text out of a PDF and arranges it into
// lines and cells that the payroll heuristics can reason about.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/payroll-csv/internal/logger"
	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when the input does not start with the PDF magic.
var ErrNotPDF = errors.New("not a PDF file")

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Document is an opened PDF held entirely in memory.
type Document struct {
	reader *pdf.Reader
}

// Open parses the PDF structure from data.
func Open(data []byte) (*Document, error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	return &Document{reader: r}, nil
}

// NumPages returns the page count from the document catalog.
func (d *Document) NumPages() int {
	return d.reader.NumPage()
}

// Pages extracts every decodable page. A page whose content stream cannot
// be interpreted is logged and skipped.
func (d *Document) Pages(ctx context.Context) ([]Page, error) {
	log := logger.FromContext(ctx)

	n := d.reader.NumPage()
	pages := make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := d.reader.Page(i)
		if p.V.IsNull() {
			log.Debug().Int("page", i).Msg("Skipping empty page reference")
			continue
		}

		content, err := pageContent(p)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("Skipping unreadable page")
			continue
		}

		pages = append(pages, Page{
			Number: i,
			Lines:  BuildLines(i, content.Text),
		})
	}

	return pages, nil
}

// pageContent converts the panics the pdf package raises on malformed
// content streams into errors.
func pageContent(p pdf.Page) (content pdf.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode page content: %v", r)
		}
	}()
	return p.Content(), nil
}
