// Package payroll holds the extracted pay records and the per-employee
// grouping that the CSV output is built from.
package payroll

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ErrNoRecords is returned when a report yields no transaction rows.
var ErrNoRecords = errors.New("no payroll records found")

// NoDataMessage is what the user sees when ErrNoRecords is returned.
const NoDataMessage = "No data found - check if the PDF is the correct format."

// UnknownEmployee is used when no name could be found for a table.
const UnknownEmployee = "Unknown"

// Record is one pay period's gross remuneration for one employee.
type Record struct {
	Employee string
	Date     string // as printed, e.g. "2024-01-25"
	Gross    decimal.Decimal
}

// ParsedDate returns the record's date as a calendar date when the printed
// text is a recognised date.
func (r Record) ParsedDate() (civil.Date, bool) {
	return ParseDate(r.Date)
}

// DisplayDate renders the date as YYYY-MM-DD, or the raw text if it could
// not be parsed.
func (r Record) DisplayDate() string {
	if d, ok := r.ParsedDate(); ok {
		return d.String()
	}
	return strings.TrimSpace(r.Date)
}

// ParseDate accepts YYYY-MM-DD and YYYY/MM/DD, ignoring anything after the
// first space (some rows print a time or a period code after the date).
func ParseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "/", "-")

	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}

var amountReplacer = strings.NewReplacer(
	"R", "",
	" ", "",
	"\u00a0", "",
	",", "",
)

// ParseAmount converts a printed rand amount such as "R 12,500.00" into a
// decimal. ok is false when the cell holds no amount at all (blank or "-").
// Parenthesised and trailing-minus amounts are negative.
func ParseAmount(s string) (amount decimal.Decimal, ok bool, err error) {
	clean := strings.TrimSpace(amountReplacer.Replace(s))
	if clean == "" || clean == "-" {
		return decimal.Zero, false, nil
	}

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
	}
	if len(clean) > 1 && strings.HasSuffix(clean, "-") {
		negative = true
		clean = strings.TrimSuffix(clean, "-")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, true, nil
}
