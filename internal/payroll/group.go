package payroll

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// EmployeeGroup is every record for one employee, ordered by date, with the
// sum of their gross remuneration.
type EmployeeGroup struct {
	Employee string
	Records  []Record
	Total    decimal.Decimal
}

// Report is the grouped result of one extraction.
type Report struct {
	Groups   []EmployeeGroup
	Strategy string
	Pages    int
}

// RecordCount is the number of transaction rows across all groups.
func (r *Report) RecordCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Records)
	}
	return n
}

// EmployeeCount is the number of distinct employees.
func (r *Report) EmployeeCount() int {
	return len(r.Groups)
}

// GrandTotal sums every group's total.
func (r *Report) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, g := range r.Groups {
		total = total.Add(g.Total)
	}
	return total
}

// Summary is the one-line status shown after a successful extraction.
func (r *Report) Summary() string {
	return fmt.Sprintf("Extracted %d rows from %d employees", r.RecordCount(), r.EmployeeCount())
}

// Group sorts records by employee then date and collects them per
// employee. Records whose date cannot be parsed sort after dated ones and
// keep their relative order. Duplicates are kept.
func Group(records []Record) []EmployeeGroup {
	sorted := make([]Record, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Employee != b.Employee {
			return a.Employee < b.Employee
		}
		da, okA := a.ParsedDate()
		db, okB := b.ParsedDate()
		switch {
		case okA && okB:
			return da.Before(db)
		case okA != okB:
			return okA
		default:
			return false
		}
	})

	var groups []EmployeeGroup
	for _, rec := range sorted {
		if n := len(groups); n == 0 || groups[n-1].Employee != rec.Employee {
			groups = append(groups, EmployeeGroup{Employee: rec.Employee, Total: decimal.Zero})
		}
		g := &groups[len(groups)-1]
		g.Records = append(g.Records, rec)
		g.Total = g.Total.Add(rec.Gross)
	}
	return groups
}

// NewReport groups records into a report, failing with ErrNoRecords when
// there is nothing to report.
func NewReport(records []Record, strategy string, pages int) (*Report, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return &Report{
		Groups:   Group(records),
		Strategy: strategy,
		Pages:    pages,
	}, nil
}
