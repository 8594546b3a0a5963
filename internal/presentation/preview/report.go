package preview

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// Report lays out a summary header, the statistics and the final board
type Report struct {
	sizer *Sizer
	opts  Options
}

// NewReport creates a report writer for the given terminal size
func NewReport(sizer *Sizer, opts Options) *Report {
	return &Report{sizer: sizer, opts: opts}
}

// BoxHeader creates a boxed header with the given title
func (r *Report) BoxHeader(title string, width int) string {
	inner := width - 2
	if w := util.GetDisplayWidth(title); w > inner {
		inner = w
	}
	padding := inner - util.GetDisplayWidth(title)
	leftPad := padding / 2
	rightPad := padding - leftPad

	line := strings.Repeat("─", inner)
	return "┌" + line + "┐\n" +
		"│" + strings.Repeat(" ", leftPad) + util.FormatHeaderTitle(title, r.opts.Color) + strings.Repeat(" ", rightPad) + "│\n" +
		"└" + line + "┘\n"
}

// Format renders the whole report for s
func (r *Report) Format(title string, s *pipeline.Summary) string {
	var sb strings.Builder

	width := r.sizer.Width()
	if width > 60 {
		width = 60
	}
	sb.WriteString(r.BoxHeader(title, width))

	line := func(label, value string) {
		sb.WriteString(r.sizer.PadString(label, 12, true))
		sb.WriteString(value)
		sb.WriteByte('\n')
	}

	line("Version", s.Version)
	line("Board", fmt.Sprintf("%dx%d, %s mines", s.Width, s.Height, util.FormatNumber(s.Mines)))
	line("Events", fmt.Sprintf("%s opens, %s flags", util.FormatNumber(s.Opens), util.FormatNumber(s.Flags)))
	line("Ticks", util.FormatNumber(s.Ticks))
	line("Duration", s.Duration)
	line("Output", s.Mode)
	line("Progress", fmt.Sprintf("%s %d%%", util.CreateProgressBar(float64(s.Progress), 20), s.Progress))
	if s.Game != nil {
		player := s.Game.UUID
		if s.PlayerName != "" {
			player = fmt.Sprintf("%s (%s)", s.PlayerName, s.Game.UUID)
		}
		line("Player", player)
		line("Won", fmt.Sprintf("%t", s.Game.Won))
	}

	if s.Board == nil {
		return sb.String()
	}

	sb.WriteByte('\n')
	opts := r.opts
	if !opts.ASCII && !r.sizer.Fits(s.Board, opts) {
		opts.ASCII = true
	}
	if !r.sizer.Fits(s.Board, opts) {
		fmt.Fprintf(&sb, "(board is %d columns wide; terminal has %d)\n", r.sizer.BoardWidth(s.Board, opts), r.sizer.Width())
		return sb.String()
	}
	sb.WriteString(Render(s.Board, opts))
	return sb.String()
}
