// Package pdftest builds small uncompressed PDFs for tests.
//
// Every page uses a single Helvetica font at FontSize points with a fixed
// glyph advance of GlyphWidth points, so the position of each character is
// known exactly.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// FontSize is the size every run is drawn at.
	FontSize = 9.0
	// GlyphWidth is the advance of every printable ASCII character.
	GlyphWidth = FontSize / 2
)

// Run is a string drawn with its first glyph at (X, Y).
type Run struct {
	X, Y float64
	Text string
}

// Page is the content of one page. Raw, when set, is used verbatim as the
// content stream instead of the runs.
type Page struct {
	Runs []Run
	Raw  string
}

// Text places s with its first glyph at (x, y).
func Text(x, y float64, s string) Run {
	return Run{X: x, Y: y, Text: s}
}

// Lines collects runs into a page.
func Lines(runs ...Run) Page {
	return Page{Runs: runs}
}

// Build assembles pages into a complete PDF file with a classic xref table.
func Build(pages ...Page) []byte {
	var objects []string

	// 1: catalog, 2: page tree, 3: font, then a page and its content per page.
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objects = append(objects, fontObject())

	for i, p := range pages {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+2*i))

		content := p.Raw
		if content == "" {
			content = contentStream(p.Runs)
		}
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func fontObject() string {
	widths := make([]string, 0, 126-32+1)
	for c := 32; c <= 126; c++ {
		widths = append(widths, fmt.Sprintf("%d", int(GlyphWidth/FontSize*1000)))
	}
	return fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " "))
}

func contentStream(runs []Run) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BT\n/F1 %g Tf\n", FontSize)
	for _, r := range runs {
		fmt.Fprintf(&sb, "1 0 0 1 %g %g Tm\n(%s) Tj\n", r.X, r.Y, escape(r.Text))
	}
	sb.WriteString("ET")
	return sb.String()
}

var escaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escape(s string) string {
	return escaper.Replace(s)
}

// PayrollStatement is one page of a transaction history for a single
// employee: two transactions totalling R 13,500.00 gross, with Nett Pay
// printed after the gross column.
func PayrollStatement() []byte {
	return Build(Lines(
		Text(40, 800, "Armour Me Payroll"),
		Text(40, 740, "Smith, John"),
		Text(40, 700, "Date"),
		Text(120, 700, "Description"),
		Text(250, 700, "Gross Remuneration"),
		Text(400, 700, "Nett Pay"),
		Text(40, 688, "2024-01-25"),
		Text(120, 688, "Salary"),
		Text(270, 688, "12,500.00"),
		Text(400, 688, "11,000.00"),
		Text(40, 676, "2024-02-25"),
		Text(120, 676, "Bonus"),
		Text(270, 676, "1,000.00"),
		Text(400, 676, "900.00"),
	))
}
