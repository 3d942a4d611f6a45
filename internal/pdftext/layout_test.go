package pdftext

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyphs spells s one character at a time starting at x, 5pt per glyph,
// the way the pdf package reports simple Type1 text.
func glyphs(s string, x, y float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{Font: "Helvetica", FontSize: 9, X: x, Y: y, W: 5, S: string(r)})
		x += 5
	}
	return out
}

func TestBuildLines_GroupsByBaselineTopToBottom(t *testing.T) {
	var in []pdf.Text
	in = append(in, glyphs("Bottom", 50, 100)...)
	in = append(in, glyphs("Top", 50, 700)...)
	in = append(in, glyphs("Mid", 50, 400.8)...)
	in = append(in, glyphs("dle", 65, 400)...) // jitter under tolerance

	lines := BuildLines(1, in)
	require.Len(t, lines, 3)

	assert.Equal(t, "Top", lines[0].Text())
	assert.Equal(t, "Middle", lines[1].Text())
	assert.Equal(t, "Bottom", lines[2].Text())
	assert.Equal(t, 1, lines[0].Page)
}

func TestBuildLines_SplitsCellsOnWideGaps(t *testing.T) {
	var in []pdf.Text
	in = append(in, glyphs("2024-01-25", 40, 500)...)
	in = append(in, glyphs("12,500.00", 200, 500)...)
	in = append(in, glyphs("9,800.00", 300, 500)...)

	lines := BuildLines(2, in)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Cells, 3)

	cells := lines[0].Cells
	assert.Equal(t, "2024-01-25", cells[0].Text)
	assert.Equal(t, "12,500.00", cells[1].Text)
	assert.Equal(t, "9,800.00", cells[2].Text)
	assert.InDelta(t, 200.0, cells[1].X0, 0.001)
	assert.InDelta(t, 245.0, cells[1].X1, 0.001)
	assert.Equal(t, "2024-01-25 12,500.00 9,800.00", lines[0].Text())
}

func TestBuildLines_InsertsWordSpaces(t *testing.T) {
	var in []pdf.Text
	in = append(in, glyphs("Gross", 100, 600)...)
	// 3pt gap: wider than a character gap (1.5pt) but under a word gap (6pt).
	in = append(in, glyphs("Remuneration", 128, 600)...)

	lines := BuildLines(1, in)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Cells, 1)
	assert.Equal(t, "Gross Remuneration", lines[0].Cells[0].Text)
}

func TestBuildLines_IgnoresWhitespaceGlyphs(t *testing.T) {
	in := []pdf.Text{
		{FontSize: 9, X: 10, Y: 10, W: 5, S: " "},
		{FontSize: 9, X: 20, Y: 10, W: 5, S: "\t"},
	}
	assert.Nil(t, BuildLines(1, in))
}

func TestBuildLines_ZeroFontSizeFallsBack(t *testing.T) {
	in := []pdf.Text{
		{X: 10, Y: 10, W: 5, S: "A"},
		{X: 15, Y: 10, W: 5, S: "B"},
	}
	lines := BuildLines(1, in)
	require.Len(t, lines, 1)
	assert.Equal(t, "AB", lines[0].Text())
	assert.InDelta(t, defaultFontSize, lines[0].Cells[0].FontSize, 0.001)
}

func TestCellCenter(t *testing.T) {
	c := Cell{X0: 100, X1: 140}
	assert.InDelta(t, 120.0, c.Center(), 0.001)
}

func TestOpen_RejectsNonPDF(t *testing.T) {
	_, err := Open([]byte("PK\x03\x04 not a pdf"))
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.4\n...")))
	assert.False(t, IsPDF([]byte("%PD")))
	assert.False(t, IsPDF(nil))
}
