package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/penwyp/go-mine-replay/internal/util"
)

// SummaryFormatter prints totals across all inspected replays.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// Format writes the aggregate report.
func (f *SummaryFormatter) Format(w io.Writer, rows []Row) error {
	var sb strings.Builder
	sb.WriteString(util.FormatHeaderTitle("Replay Summary", false))
	sb.WriteString("\n\n")

	if len(rows) == 0 {
		sb.WriteString("No replays inspected.\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	var totalMs int64
	var totalProgress int
	completed := 0
	for _, row := range rows {
		totalMs += row.DurationMs
		totalProgress += row.Progress
		if row.Progress == 100 {
			completed++
		}
	}
	avgProgress := totalProgress / len(rows)

	fmt.Fprintf(&sb, "%s %s\n", util.PadRight("Replays:", 16), util.FormatNumber(len(rows)))
	fmt.Fprintf(&sb, "%s %s\n", util.PadRight("Completed:", 16), util.FormatNumber(completed))
	fmt.Fprintf(&sb, "%s %s\n", util.PadRight("Total time:", 16), util.FormatDuration(time.Duration(totalMs)*time.Millisecond))
	fmt.Fprintf(&sb, "%s %s %d%%\n", util.PadRight("Avg progress:", 16), util.CreateProgressBar(float64(avgProgress), 20), avgProgress)

	sb.WriteString("\nBy board size:\n")
	bySize := lo.GroupBy(rows, func(r Row) string { return r.Size() })
	sizes := lo.Keys(bySize)
	sort.Slice(sizes, func(i, j int) bool {
		if len(bySize[sizes[i]]) != len(bySize[sizes[j]]) {
			return len(bySize[sizes[i]]) > len(bySize[sizes[j]])
		}
		return sizes[i] < sizes[j]
	})
	for _, size := range sizes {
		fmt.Fprintf(&sb, "  %s %s\n", util.PadRight(size, 14), util.FormatNumber(len(bySize[size])))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
