package extract

import (
	"github.com/dvloznov/payroll-csv/internal/pdftext"
)

const fontSize = 9

func cell(text string, x0, x1 float64) pdftext.Cell {
	return pdftext.Cell{Text: text, X0: x0, X1: x1, FontSize: fontSize}
}

func line(y float64, cells ...pdftext.Cell) pdftext.Line {
	for i := range cells {
		cells[i].Y = y
	}
	return pdftext.Line{Y: y, Cells: cells}
}

// textLine is a single-cell line, enough for the line strategy.
func textLine(y float64, text string) pdftext.Line {
	return line(y, cell(text, 40, 40+float64(len(text))*4))
}

func page(n int, lines ...pdftext.Line) pdftext.Page {
	for i := range lines {
		lines[i].Page = n
	}
	return pdftext.Page{Number: n, Lines: lines}
}

func reportHeader(y float64) pdftext.Line {
	return line(y,
		cell("Date", 40, 60),
		cell("Description", 120, 180),
		cell("Basic Salary", 250, 300),
		cell("Gross Remuneration", 330, 420),
		cell("PAYE", 440, 470),
		cell("Nett Pay", 500, 540),
	)
}

func reportRow(y float64, date, gross string) pdftext.Line {
	return line(y,
		cell(date, 40, 90),
		cell("Salary", 120, 150),
		cell("12,000.00", 255, 300),
		cell(gross, 360, 405),
		cell("1,500.00", 440, 480),
		cell("11,000.00", 500, 545),
	)
}

// reportPages mimics two pages of the transaction history: two employees on
// the first page and a continuation table with no name above it on the
// second.
func reportPages() []pdftext.Page {
	return []pdftext.Page{
		page(1,
			textLine(800, "Armour Me (Pty) Ltd"),
			textLine(780, "Transaction History, Period 2024"),
			textLine(720, "Smith, John"),
			reportHeader(700),
			reportRow(688, "2024-01-25", "12,500.00"),
			reportRow(676, "2024-02-25", "R 12,500.00"),
			line(664, cell("Total", 40, 60), cell("25,000.00", 360, 405)),
			textLine(600, "Adams, Jane"),
			reportHeader(580),
			reportRow(568, "2024-01-25", "9,800.50"),
			reportRow(556, "2024-02-25", "-"),
		),
		page(2,
			textLine(760, "Page 2, continued"),
			reportHeader(700),
			reportRow(688, "2024-03-25", "5,000.00"),
			line(676, cell("2024-04-25", 40, 90), cell("n/a", 360, 405)),
		),
	}
}
