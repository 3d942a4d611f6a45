package pdftext

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// lineTolerance is how far apart (in points) two glyph baselines may be
	// and still count as the same printed line.
	lineTolerance = 2.0

	defaultFontSize = 10.0
)

// Cell is a run of glyphs printed close enough together to read as one
// phrase. Table columns in the payroll report are separated by gaps wider
// than a word space, so a cell usually corresponds to one table cell.
type Cell struct {
	Text     string
	X0       float64
	X1       float64
	Y        float64
	FontSize float64
}

// Center returns the horizontal midpoint of the cell.
func (c Cell) Center() float64 {
	return (c.X0 + c.X1) / 2
}

// Line is a set of cells sharing a baseline, ordered left to right.
type Line struct {
	Page  int
	Y     float64
	Cells []Cell
}

// Text joins the line's cells with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Cells))
	for _, c := range l.Cells {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, " ")
}

// Page is one page of positioned text, lines ordered top to bottom.
type Page struct {
	Number int
	Lines  []Line
}

// BuildLines turns raw glyphs into lines of cells. PDF space has Y growing
// upwards, so the returned lines run from the highest Y to the lowest.
func BuildLines(page int, glyphs []pdf.Text) []Line {
	chars := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		chars = append(chars, g)
	}
	if len(chars) == 0 {
		return nil
	}

	// Snap baselines that are within tolerance of each other.
	sort.SliceStable(chars, func(i, j int) bool { return chars[i].Y > chars[j].Y })
	anchor := chars[0].Y
	for i := range chars {
		if math.Abs(anchor-chars[i].Y) < lineTolerance {
			chars[i].Y = anchor
		} else {
			anchor = chars[i].Y
		}
	}

	sort.SliceStable(chars, func(i, j int) bool {
		if chars[i].Y != chars[j].Y {
			return chars[i].Y > chars[j].Y
		}
		return chars[i].X < chars[j].X
	})

	var lines []Line
	for i := 0; i < len(chars); {
		j := i + 1
		for j < len(chars) && chars[j].Y == chars[i].Y {
			j++
		}
		lines = append(lines, Line{
			Page:  page,
			Y:     chars[i].Y,
			Cells: buildCells(chars[i:j]),
		})
		i = j
	}

	return lines
}

// buildCells merges the glyphs of a single line into phrases. Glyphs closer
// than a character gap are joined directly, glyphs within a word gap get a
// space, anything further apart starts a new cell.
func buildCells(chars []pdf.Text) []Cell {
	var cells []Cell
	for k := 0; k < len(chars); {
		first := chars[k]
		size := first.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		charSpace := size / 6
		wordSpace := size * 2 / 3

		var sb strings.Builder
		sb.WriteString(strings.TrimSpace(first.S))
		end := first.X + first.W

		l := k + 1
		for l < len(chars) {
			next := chars[l]
			gap := next.X - end
			if gap > wordSpace {
				break
			}
			if gap > charSpace {
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.TrimSpace(next.S))
			if e := next.X + next.W; e > end {
				end = e
			}
			l++
		}

		cells = append(cells, Cell{
			Text:     sb.String(),
			X0:       first.X,
			X1:       end,
			Y:        first.Y,
			FontSize: size,
		})
		k = l
	}
	return cells
}
