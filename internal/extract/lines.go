package extract

import (
	"context"
	"strings"

	"github.com/dvloznov/payroll-csv/internal/logger"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pdftext"
)

// LineStrategy ignores table structure and classifies each printed line:
// name lines switch the current employee, dated lines are transactions.
type LineStrategy struct {
	opts Options
}

// NewLineStrategy creates a line strategy.
func NewLineStrategy(opts Options) *LineStrategy {
	return &LineStrategy{opts: opts.withDefaults()}
}

// Name identifies the strategy in reports and logs.
func (s *LineStrategy) Name() string { return string(ModeLines) }

// Extract scans every line of every page in reading order. The current
// employee carries over page breaks.
func (s *LineStrategy) Extract(ctx context.Context, pages []pdftext.Page) []payroll.Record {
	log := logger.FromContext(ctx)

	employee := payroll.UnknownEmployee
	var records []payroll.Record
	for _, page := range pages {
		for _, line := range page.Lines {
			text := strings.TrimSpace(line.Text())
			if isNameLine(text, s.opts.NameKeywords) {
				employee = text
				continue
			}

			rec, ok := parseTransactionLine(text, employee)
			if !ok {
				continue
			}
			records = append(records, rec)
		}
		log.Debug().Int("page", page.Number).Int("records", len(records)).Msg("Page scanned")
	}
	return records
}

// parseTransactionLine reads a line that begins with a date and carries at
// least one currency amount.
func parseTransactionLine(text, employee string) (payroll.Record, bool) {
	date, ok := leadingDate(text)
	if !ok {
		return payroll.Record{}, false
	}

	rest := strings.TrimSpace(leadingDateRe.ReplaceAllString(text, ""))
	raw, ok := grossFromAmounts(amountRe.FindAllString(rest, -1))
	if !ok {
		return payroll.Record{}, false
	}

	gross, ok, err := payroll.ParseAmount(raw)
	if err != nil || !ok {
		return payroll.Record{}, false
	}

	return payroll.Record{
		Employee: employee,
		Date:     date,
		Gross:    gross,
	}, true
}
