package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/payroll-csv/internal/extract"
	"github.com/dvloznov/payroll-csv/internal/logger"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pdftext"
	"github.com/dvloznov/payroll-csv/internal/render"
	"github.com/dvloznov/payroll-csv/internal/source"
)

var (
	// ErrNoSource is returned when the state has neither bytes nor a source.
	ErrNoSource = errors.New("no PDF source given")
	// ErrUnreadablePDF wraps failures to open or decode the document.
	ErrUnreadablePDF = errors.New("unreadable PDF")
)

// PageReader turns PDF bytes into positioned page text.
type PageReader interface {
	ReadPages(ctx context.Context, data []byte) (pages []pdftext.Page, total int, err error)
}

// PDFReader reads pages with the pdftext package.
type PDFReader struct{}

// ReadPages opens data and extracts every decodable page.
func (PDFReader) ReadPages(ctx context.Context, data []byte) ([]pdftext.Page, int, error) {
	doc, err := pdftext.Open(data)
	if err != nil {
		return nil, 0, err
	}
	pages, err := doc.Pages(ctx)
	if err != nil {
		return nil, 0, err
	}
	return pages, doc.NumPages(), nil
}

// Step 1: FetchPDFStep loads the PDF bytes unless they were uploaded.
type FetchPDFStep struct {
	Fetcher source.Fetcher
}

func (s *FetchPDFStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.PDFBytes) > 0 {
		return nil
	}
	if state.Source == "" || s.Fetcher == nil {
		return ErrNoSource
	}

	data, err := s.Fetcher.Fetch(ctx, state.Source)
	if err != nil {
		return err
	}
	state.PDFBytes = data
	return nil
}

// Step 2: ExtractPagesStep reads positioned text from every page.
type ExtractPagesStep struct {
	Reader PageReader
}

func (s *ExtractPagesStep) Execute(ctx context.Context, state *PipelineState) error {
	pages, total, err := s.Reader.ReadPages(ctx, state.PDFBytes)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
	}
	state.Pages = pages
	state.PageCount = total

	log := logger.FromContext(ctx)
	log.Debug().
		Int("pages", total).
		Int("readable_pages", len(pages)).
		Msg("Read PDF pages")
	return nil
}

// Step 3: ExtractRecordsStep applies the layout heuristics.
type ExtractRecordsStep struct {
	Options extract.Options
}

func (s *ExtractRecordsStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Extracted = extract.Run(ctx, state.Pages, s.Options)
	return nil
}

// Step 4: GroupRecordsStep sorts, groups and totals the records.
// An extraction that found nothing fails with payroll.ErrNoRecords.
type GroupRecordsStep struct{}

func (s *GroupRecordsStep) Execute(ctx context.Context, state *PipelineState) error {
	report, err := payroll.NewReport(state.Extracted.Records, state.Extracted.Strategy, state.PageCount)
	if err != nil {
		return err
	}
	state.Report = report

	log := logger.FromContext(ctx)
	log.Info().
		Str("strategy", report.Strategy).
		Int("records", report.RecordCount()).
		Int("employees", report.EmployeeCount()).
		Msg(report.Summary())
	return nil
}

// Step 5: RenderCSVStep renders the detail and summary CSVs.
type RenderCSVStep struct{}

func (s *RenderCSVStep) Execute(ctx context.Context, state *PipelineState) error {
	detail, err := render.DetailCSV(state.Report)
	if err != nil {
		return err
	}
	summary, err := render.SummaryCSV(state.Report)
	if err != nil {
		return err
	}
	state.DetailCSV = detail
	state.SummaryCSV = summary
	return nil
}
