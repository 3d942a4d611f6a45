// Package extract holds the layout heuristics for the Armour Me payroll
// transaction history report. Nothing here tries to be general: the column
// names, name band and keyword list all match that one document.
package extract

import (
	"fmt"
	"strings"
)

// Mode selects which heuristics run.
type Mode string

const (
	// ModeAuto tries the table heuristics and falls back to line scanning.
	ModeAuto Mode = "auto"
	// ModeTable only uses header/column detection.
	ModeTable Mode = "table"
	// ModeLines only uses line-by-line pattern matching.
	ModeLines Mode = "lines"
)

// DefaultNameBand is the height, in points, of the strip above a table
// that is searched for the employee name.
const DefaultNameBand = 80.0

// DefaultNameKeywords are words that never appear in an employee name line
// but do appear in comma-bearing lines near the tables.
var DefaultNameKeywords = []string{
	"date", "basic", "tax", "uif", "sdl", "loan", "page",
	"armour", "transaction", "period", "number",
}

// maxNameWords caps how many words an employee name line may contain.
const maxNameWords = 5

// Options tunes the heuristics.
type Options struct {
	Mode         Mode
	NameBand     float64
	NameKeywords []string
}

// DefaultOptions returns the settings tuned for the report.
func DefaultOptions() Options {
	return Options{
		Mode:         ModeAuto,
		NameBand:     DefaultNameBand,
		NameKeywords: DefaultNameKeywords,
	}
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeTable, ModeLines:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unknown extract mode %q (want auto, table or lines)", s)
	}
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeAuto
	}
	if o.NameBand <= 0 {
		o.NameBand = DefaultNameBand
	}
	if o.NameKeywords == nil {
		o.NameKeywords = DefaultNameKeywords
	}
	return o
}
