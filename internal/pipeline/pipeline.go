// Package pipeline runs one payroll PDF through extraction, grouping and
// CSV rendering as a fixed sequence of steps sharing a single state.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/payroll-csv/internal/extract"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pdftext"
	"github.com/dvloznov/payroll-csv/internal/source"
)

// PipelineStep represents a single step in the extraction pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
// Set Source to have the PDF fetched, or PDFBytes when it was uploaded.
type PipelineState struct {
	Source   string
	PDFBytes []byte

	Pages     []pdftext.Page
	PageCount int
	Extracted extract.Result
	Report    *payroll.Report

	DetailCSV  []byte
	SummaryCSV []byte
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewExtractionPipeline creates the standard 5-step pipeline:
// fetch, read pages, extract records, group, render.
func NewExtractionPipeline(fetcher source.Fetcher, reader PageReader, opts extract.Options) *Pipeline {
	return NewPipeline(
		&FetchPDFStep{Fetcher: fetcher},
		&ExtractPagesStep{Reader: reader},
		&ExtractRecordsStep{Options: opts},
		&GroupRecordsStep{},
		&RenderCSVStep{},
	)
}

// Run processes state with the standard pipeline reading real PDFs.
func Run(ctx context.Context, state *PipelineState, fetcher source.Fetcher, opts extract.Options) error {
	return NewExtractionPipeline(fetcher, PDFReader{}, opts).Execute(ctx, state)
}
