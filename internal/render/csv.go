// Package render writes a payroll report out as CSV.
package render

import (
	"bytes"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

const (
	// DetailFilename is the download name for the per-period CSV.
	DetailFilename = "armour_me_gross_remuneration.csv"
	// SummaryFilename is the download name for the per-employee totals CSV.
	SummaryFilename = "armour_me_gross_totals.csv"

	// TotalLabel goes in the Date column of each employee's total row.
	TotalLabel = "Total"
)

// utf8BOM lets spreadsheet programs detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var randFormatter = money.NewFormatter(2, ".", ",", "R", "$ 1")

// DetailRow is one line of the detail CSV.
type DetailRow struct {
	Employee string `csv:"Employee" json:"employee"`
	Date     string `csv:"Date" json:"date"`
	Gross    string `csv:"Gross Remuneration" json:"gross_remuneration"`
	IsTotal  bool   `csv:"-" json:"is_total,omitempty"`
}

// SummaryRow is one line of the totals CSV.
type SummaryRow struct {
	Employee   string `csv:"Employee" json:"employee"`
	TotalGross string `csv:"Total Gross" json:"total_gross"`
}

// FormatRand prints an amount the way the report does, e.g. "R 12,500.00".
func FormatRand(d decimal.Decimal) string {
	return randFormatter.Format(d.Shift(2).Round(0).IntPart())
}

// DetailRows lists every record followed by a total row per employee.
func DetailRows(report *payroll.Report) []DetailRow {
	rows := make([]DetailRow, 0, report.RecordCount()+report.EmployeeCount())
	for _, g := range report.Groups {
		for _, rec := range g.Records {
			rows = append(rows, DetailRow{
				Employee: rec.Employee,
				Date:     rec.DisplayDate(),
				Gross:    FormatRand(rec.Gross),
			})
		}
		rows = append(rows, DetailRow{
			Employee: g.Employee,
			Date:     TotalLabel,
			Gross:    FormatRand(g.Total),
			IsTotal:  true,
		})
	}
	return rows
}

// SummaryRows lists one total per employee.
func SummaryRows(report *payroll.Report) []SummaryRow {
	rows := make([]SummaryRow, 0, report.EmployeeCount())
	for _, g := range report.Groups {
		rows = append(rows, SummaryRow{
			Employee:   g.Employee,
			TotalGross: FormatRand(g.Total),
		})
	}
	return rows
}

// DetailCSV renders the Employee, Date, Gross Remuneration table.
func DetailCSV(report *payroll.Report) ([]byte, error) {
	return marshal(DetailRows(report))
}

// SummaryCSV renders the Employee, Total Gross table.
func SummaryCSV(report *payroll.Report) ([]byte, error) {
	return marshal(SummaryRows(report))
}

func marshal(rows interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
