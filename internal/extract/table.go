package extract

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/dvloznov/payroll-csv/internal/logger"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pdftext"
)

// header is a detected table header with the column layout derived from it.
type header struct {
	index    int // index of the first header line on the page
	lines    int // number of lines the header spans
	y        float64
	cells    []pdftext.Cell
	dateCol  int
	grossCol int
	bounds   []float64 // split points between adjacent columns
}

// TableStrategy finds report tables by their header row and reads the
// Date and gross columns from every row below it.
type TableStrategy struct {
	opts Options
}

// NewTableStrategy creates a table strategy.
func NewTableStrategy(opts Options) *TableStrategy {
	return &TableStrategy{opts: opts.withDefaults()}
}

// Name identifies the strategy in reports and logs.
func (s *TableStrategy) Name() string { return string(ModeTable) }

// Extract returns every record found under a recognised table header.
func (s *TableStrategy) Extract(ctx context.Context, pages []pdftext.Page) []payroll.Record {
	log := logger.FromContext(ctx)

	var records []payroll.Record
	for _, page := range pages {
		lines := page.Lines
		for i := 0; i < len(lines); {
			hdr, ok := detectHeader(lines, i)
			if !ok {
				i++
				continue
			}

			employee := s.employeeAbove(lines, hdr)
			end := i + hdr.lines
			for end < len(lines) {
				if _, next := detectHeader(lines, end); next {
					break
				}
				end++
			}

			rows := lines[i+hdr.lines : end]
			found := 0
			for _, row := range rows {
				rec, ok := readRow(hdr, row, employee)
				if !ok {
					continue
				}
				records = append(records, rec)
				found++
			}

			log.Debug().
				Int("page", page.Number).
				Str("employee", employee).
				Str("gross_column", hdr.cells[hdr.grossCol].Text).
				Int("rows", found).
				Msg("Table parsed")

			i = end
		}
	}
	return records
}

// employeeAbove searches the band directly above the header, nearest line
// first, for something that reads like "Surname, Firstname". Dated lines
// are rows of a previous table and never count.
func (s *TableStrategy) employeeAbove(lines []pdftext.Line, hdr header) string {
	top := hdr.y + s.opts.NameBand
	for k := hdr.index - 1; k >= 0; k-- {
		line := lines[k]
		if line.Y > top {
			break
		}
		if line.Y <= hdr.y {
			continue
		}
		text := strings.TrimSpace(line.Text())
		if _, dated := leadingDate(text); dated {
			// A transaction row of the table above.
			continue
		}
		if text != "" && looksLikeName(text, s.opts.NameKeywords) {
			return text
		}
	}
	return payroll.UnknownEmployee
}

// detectHeader reports whether lines[i] starts a table header. Headers
// whose gross column label wraps onto a second line are merged first.
func detectHeader(lines []pdftext.Line, i int) (header, bool) {
	line := lines[i]
	if findCell(line.Cells, "date") < 0 {
		return header{}, false
	}

	cells := line.Cells
	span := 1
	if grossColumn(cells) < 0 && i+1 < len(lines) && wrapsOnto(line, lines[i+1]) {
		cells = mergeHeaderCells(line.Cells, lines[i+1].Cells)
		span = 2
	}

	dateCol := findCell(cells, "date")
	grossCol := grossColumn(cells)
	if dateCol < 0 || grossCol < 0 || grossCol == dateCol {
		return header{}, false
	}

	return header{
		index:    i,
		lines:    span,
		y:        line.Y,
		cells:    cells,
		dateCol:  dateCol,
		grossCol: grossCol,
		bounds:   columnBounds(cells),
	}, true
}

// wrapsOnto reports whether next sits close enough under line to be the
// second line of a wrapped header.
func wrapsOnto(line, next pdftext.Line) bool {
	size := 10.0
	if len(line.Cells) > 0 && line.Cells[0].FontSize > 0 {
		size = line.Cells[0].FontSize
	}
	gap := line.Y - next.Y
	return gap > 0 && gap <= 1.6*size && leadingDateRe.FindString(next.Text()) == ""
}

// grossColumn picks the gross remuneration column: the last cell naming
// "Gross Remuneration", else the last naming "Gross", else the cell
// immediately before "Nett Pay".
func grossColumn(cells []pdftext.Cell) int {
	if i := lastCellContaining(cells, "gross remuneration"); i >= 0 {
		return i
	}
	if i := lastCellContaining(cells, "gross"); i >= 0 {
		return i
	}
	if i := lastCellContaining(cells, "nett pay"); i > 0 {
		return i - 1
	}
	return -1
}

func findCell(cells []pdftext.Cell, label string) int {
	for i, c := range cells {
		if strings.EqualFold(strings.TrimSpace(c.Text), label) {
			return i
		}
	}
	return -1
}

func lastCellContaining(cells []pdftext.Cell, needle string) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(cellText(cells[i])), needle) {
			return i
		}
	}
	return -1
}

// cellText collapses runs of whitespace so wrapped labels compare cleanly.
func cellText(cell pdftext.Cell) string {
	return strings.Join(strings.Fields(cell.Text), " ")
}

// mergeHeaderCells folds the cells of a wrapped second header line into the
// top line's cells they sit under. Cells with nothing above them become
// columns of their own.
func mergeHeaderCells(top, bottom []pdftext.Cell) []pdftext.Cell {
	merged := make([]pdftext.Cell, len(top))
	copy(merged, top)

	for _, b := range bottom {
		best, bestOverlap := -1, 0.0
		for i, t := range merged {
			if ov := overlap(b.X0, b.X1, t.X0, t.X1); ov > bestOverlap {
				best, bestOverlap = i, ov
			}
		}
		if best < 0 {
			merged = append(merged, b)
			continue
		}
		t := &merged[best]
		t.Text = t.Text + " " + b.Text
		t.X0 = math.Min(t.X0, b.X0)
		t.X1 = math.Max(t.X1, b.X1)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].X0 < merged[j].X0 })
	return merged
}

// columnBounds returns the midpoints between adjacent header cell centres.
func columnBounds(cells []pdftext.Cell) []float64 {
	if len(cells) < 2 {
		return nil
	}
	bounds := make([]float64, len(cells)-1)
	for i := 0; i < len(cells)-1; i++ {
		bounds[i] = (cells[i].Center() + cells[i+1].Center()) / 2
	}
	return bounds
}

// columnOf assigns a data cell to the header column it overlaps most.
func (h header) columnOf(cell pdftext.Cell) int {
	n := len(h.cells)
	if cell.X1 <= cell.X0 {
		return h.columnAt(cell.X0)
	}

	best, bestOverlap := h.columnAt(cell.Center()), 0.0
	for i := 0; i < n; i++ {
		lo, hi := math.Inf(-1), math.Inf(1)
		if i > 0 {
			lo = h.bounds[i-1]
		}
		if i < n-1 {
			hi = h.bounds[i]
		}
		if ov := overlap(cell.X0, cell.X1, lo, hi); ov > bestOverlap {
			best, bestOverlap = i, ov
		}
	}
	return best
}

func (h header) columnAt(x float64) int {
	return sort.SearchFloat64s(h.bounds, x)
}

func overlap(a0, a1, b0, b1 float64) float64 {
	return math.Max(0, math.Min(a1, b1)-math.Max(a0, b0))
}

// readRow turns one line under a header into a record. Rows whose Date
// column does not start with "20" (sub-headers, totals, footers) and rows
// without a usable gross amount are skipped.
func readRow(hdr header, line pdftext.Line, employee string) (payroll.Record, bool) {
	cols := make(map[int]string, len(hdr.cells))
	for _, cell := range line.Cells {
		col := hdr.columnOf(cell)
		if prev, ok := cols[col]; ok {
			cols[col] = prev + " " + cell.Text
		} else {
			cols[col] = cell.Text
		}
	}

	date := strings.TrimSpace(cols[hdr.dateCol])
	if !strings.HasPrefix(date, "20") {
		return payroll.Record{}, false
	}
	if d, ok := leadingDate(date); ok {
		date = d
	}

	gross, ok, err := payroll.ParseAmount(cols[hdr.grossCol])
	if err != nil || !ok {
		return payroll.Record{}, false
	}

	return payroll.Record{
		Employee: employee,
		Date:     date,
		Gross:    gross,
	}, true
}
