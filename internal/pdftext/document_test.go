package pdftext

import (
	"context"
	"testing"

	"github.com/dvloznov/payroll-csv/internal/pdftext/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenContent calls Tj without an operand, which the decoder panics on.
const brokenContent = "BT\n/F1 9 Tf\nTj\nET"

func cellTexts(l Line) []string {
	out := make([]string, len(l.Cells))
	for i, c := range l.Cells {
		out[i] = c.Text
	}
	return out
}

func TestDocument_Pages(t *testing.T) {
	doc, err := Open(pdftest.PayrollStatement())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.NumPages())

	pages, err := doc.Pages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)

	lines := pages[0].Lines
	require.Len(t, lines, 5)

	assert.Equal(t, "Armour Me Payroll", lines[0].Text())
	assert.Equal(t, "Smith, John", lines[1].Text())
	assert.Equal(t, []string{"Date", "Description", "Gross Remuneration", "Nett Pay"}, cellTexts(lines[2]))
	assert.Equal(t, []string{"2024-01-25", "Salary", "12,500.00", "11,000.00"}, cellTexts(lines[3]))
	assert.Equal(t, []string{"2024-02-25", "Bonus", "1,000.00", "900.00"}, cellTexts(lines[4]))

	gross := lines[2].Cells[2]
	assert.InDelta(t, 700, gross.Y, 0.01)
	assert.InDelta(t, 250, gross.X0, 0.01)
	assert.InDelta(t, 250+18*pdftest.GlyphWidth, gross.X1, 0.01)
	assert.InDelta(t, pdftest.FontSize, gross.FontSize, 0.01)
	assert.Equal(t, 1, lines[2].Page)
}

func TestDocument_PagesInOrder(t *testing.T) {
	data := pdftest.Build(
		pdftest.Lines(pdftest.Text(40, 700, "first")),
		pdftest.Lines(pdftest.Text(40, 700, "second")),
		pdftest.Lines(pdftest.Text(40, 700, "third")),
	)

	doc, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.NumPages())

	pages, err := doc.Pages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, i+1, pages[i].Number)
		require.Len(t, pages[i].Lines, 1)
		assert.Equal(t, want, pages[i].Lines[0].Text())
		assert.Equal(t, i+1, pages[i].Lines[0].Page)
	}
}

func TestDocument_SkipsUndecodablePage(t *testing.T) {
	data := pdftest.Build(
		pdftest.Page{Raw: brokenContent},
		pdftest.Lines(pdftest.Text(40, 700, "Smith, John")),
	)

	doc, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.NumPages())

	pages, err := doc.Pages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 2, pages[0].Number)
	assert.Equal(t, "Smith, John", pages[0].Lines[0].Text())
}

func TestPageContent_RecoversDecoderPanic(t *testing.T) {
	doc, err := Open(pdftest.Build(pdftest.Page{Raw: brokenContent}))
	require.NoError(t, err)

	_, err = pageContent(doc.reader.Page(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode page content")
}

func TestDocument_PagesCancelled(t *testing.T) {
	doc, err := Open(pdftest.PayrollStatement())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = doc.Pages(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_MalformedPDF(t *testing.T) {
	_, err := Open([]byte("%PDF-1.4\nnothing else here\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotPDF)
	assert.Contains(t, err.Error(), "open pdf")
}
