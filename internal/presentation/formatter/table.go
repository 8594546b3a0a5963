package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-mine-replay/internal/util"
)

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{
			"Source", "Ver", "Size", "Mines", "Opens",
			"Flags", "Ticks", "Duration", "Progress", "Mode",
		},
	}
}

func (f *TableFormatter) Format(w io.Writer, rows []Row) error {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, f.values(row))
	}

	widths := f.calculateColumnWidths(cells)

	var sb strings.Builder
	f.writeBorder(&sb, widths, "top")
	f.writeRow(&sb, f.headers, widths)
	f.writeBorder(&sb, widths, "middle")
	for _, values := range cells {
		f.writeRow(&sb, values, widths)
	}
	f.writeBorder(&sb, widths, "bottom")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *TableFormatter) values(row Row) []string {
	return []string{
		row.Source,
		row.Version,
		row.Size(),
		util.FormatNumber(row.Mines),
		util.FormatNumber(row.Opens),
		util.FormatNumber(row.Flags),
		util.FormatNumber(row.Ticks),
		row.Duration,
		fmt.Sprintf("%d%%", row.Progress),
		row.Mode,
	}
}

// calculateColumnWidths sizes each column by display width so wide
// characters in file names stay aligned
func (f *TableFormatter) calculateColumnWidths(cells [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, values := range cells {
		for i, value := range values {
			if w := util.GetDisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// writeBorder writes table borders (top, middle, bottom)
func (f *TableFormatter) writeBorder(sb *strings.Builder, widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	sb.WriteString(left)
	for i, width := range widths {
		sb.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteByte('\n')
}

// writeRow writes one row. Source and Version are left-aligned, the rest
// right-aligned.
func (f *TableFormatter) writeRow(sb *strings.Builder, values []string, widths []int) {
	sb.WriteString("│")
	for i, value := range values {
		pad := widths[i] - util.GetDisplayWidth(value)
		if pad < 0 {
			pad = 0
		}
		sb.WriteByte(' ')
		if i < 2 {
			sb.WriteString(value)
			sb.WriteString(strings.Repeat(" ", pad))
		} else {
			sb.WriteString(strings.Repeat(" ", pad))
			sb.WriteString(value)
		}
		sb.WriteString(" │")
	}
	sb.WriteByte('\n')
}
