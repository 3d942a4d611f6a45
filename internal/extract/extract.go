package extract

import (
	"context"

	"github.com/dvloznov/payroll-csv/internal/logger"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pdftext"
)

// Strategy turns positioned page text into payroll records. Malformed rows
// are skipped, so an empty result is not an error at this level.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, pages []pdftext.Page) []payroll.Record
}

// Result is what Run found and which strategy found it.
type Result struct {
	Records  []payroll.Record
	Strategy string
}

// Run applies the strategies selected by opts.Mode. In auto mode the table
// heuristics run first and line scanning is only tried when they find
// nothing.
func Run(ctx context.Context, pages []pdftext.Page, opts Options) Result {
	opts = opts.withDefaults()
	log := logger.FromContext(ctx)

	var strategies []Strategy
	switch opts.Mode {
	case ModeTable:
		strategies = []Strategy{NewTableStrategy(opts)}
	case ModeLines:
		strategies = []Strategy{NewLineStrategy(opts)}
	default:
		strategies = []Strategy{NewTableStrategy(opts), NewLineStrategy(opts)}
	}

	var last string
	for _, s := range strategies {
		last = s.Name()
		records := s.Extract(ctx, pages)
		log.Info().
			Str("strategy", s.Name()).
			Int("records", len(records)).
			Msg("Extraction strategy finished")
		if len(records) > 0 {
			return Result{Records: records, Strategy: s.Name()}
		}
	}
	return Result{Strategy: last}
}
