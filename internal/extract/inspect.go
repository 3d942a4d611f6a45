package extract

import (
	"fmt"
	"strings"

	"github.com/dvloznov/payroll-csv/internal/pdftext"
)

// LineClass is how the heuristics see a printed line.
type LineClass string

const (
	ClassHeader      LineClass = "header"
	ClassName        LineClass = "name"
	ClassTransaction LineClass = "transaction"
	ClassOther       LineClass = "other"
)

// InspectedLine is one row of the classification dump.
type InspectedLine struct {
	Page   int
	Y      float64
	Class  LineClass
	Text   string
	Detail string
}

// Inspect classifies every line so the heuristics can be checked against a
// new copy of the report without running a full extraction.
func Inspect(pages []pdftext.Page, opts Options) []InspectedLine {
	opts = opts.withDefaults()

	var out []InspectedLine
	for _, page := range pages {
		for i, line := range page.Lines {
			text := strings.TrimSpace(line.Text())
			il := InspectedLine{Page: page.Number, Y: line.Y, Class: ClassOther, Text: text}

			if hdr, ok := detectHeader(page.Lines, i); ok {
				il.Class = ClassHeader
				il.Detail = fmt.Sprintf("date=%q gross=%q columns=%d",
					hdr.cells[hdr.dateCol].Text, cellText(hdr.cells[hdr.grossCol]), len(hdr.cells))
			} else if isNameLine(text, opts.NameKeywords) {
				il.Class = ClassName
			} else if rec, ok := parseTransactionLine(text, ""); ok {
				il.Class = ClassTransaction
				il.Detail = fmt.Sprintf("date=%s gross=%s", rec.Date, rec.Gross.StringFixed(2))
			}

			out = append(out, il)
		}
	}
	return out
}
