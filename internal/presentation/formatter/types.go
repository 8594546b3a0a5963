package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
)

// Row is one inspected replay flattened for output.
type Row struct {
	Source     string `json:"source"`
	Version    string `json:"version"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Mines      int    `json:"mines"`
	Opens      int    `json:"opens"`
	Flags      int    `json:"flags"`
	Ticks      int    `json:"ticks"`
	Duration   string `json:"duration"`
	DurationMs int64  `json:"durationMs"`
	Progress   int    `json:"progress"`
	Mode       string `json:"mode"`
	Won        *bool  `json:"won,omitempty"`
}

// Size returns the board size as WxH.
func (r Row) Size() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// RowFromSummary flattens a pipeline summary.
func RowFromSummary(source string, s *pipeline.Summary) Row {
	row := Row{
		Source:     source,
		Version:    s.Version,
		Width:      s.Width,
		Height:     s.Height,
		Mines:      s.Mines,
		Opens:      s.Opens,
		Flags:      s.Flags,
		Ticks:      s.Ticks,
		Duration:   s.Duration,
		DurationMs: s.DurationMs,
		Progress:   s.Progress,
		Mode:       s.Mode,
	}
	if s.Game != nil {
		won := s.Game.Won
		row.Won = &won
	}
	return row
}

// Formatter writes inspected rows in one output format.
type Formatter interface {
	Format(w io.Writer, rows []Row) error
}

// New returns the formatter registered for name.
func New(name string) (Formatter, error) {
	switch name {
	case "table", "":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "summary":
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json, csv or summary)", name)
	}
}
