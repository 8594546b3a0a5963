// Package preview draws a board as text for terminal output.
package preview

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/penwyp/go-mine-replay/internal/core/board"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// Options controls the text rendering.
type Options struct {
	ASCII bool // use only ASCII symbols
	Color bool // colour counts and flags with ANSI escapes
}

// Symbols is the glyph set for one rendering style.
type Symbols struct {
	Closed string
	Flag   string
	Unsure string
	Mine   string
	Empty  string
}

var (
	unicodeSymbols = Symbols{Closed: "■", Flag: "⚑", Unsure: "?", Mine: "✱", Empty: "·"}
	asciiSymbols   = Symbols{Closed: "#", Flag: "F", Unsure: "?", Mine: "*", Empty: "."}
)

var countColors = [9]string{
	"", util.ColorCyan, util.ColorGreen, util.ColorRed, util.ColorCyan,
	util.ColorRed, util.ColorCyan, util.ColorBold, util.ColorYellow,
}

// Render returns one line per board row. Cells are padded to a common
// display width so wide symbols stay aligned.
func Render(b *board.Board, opts Options) string {
	symbols := unicodeSymbols
	if opts.ASCII {
		symbols = asciiSymbols
	}

	cellWidth := 1
	for _, s := range []string{symbols.Closed, symbols.Flag, symbols.Unsure, symbols.Mine, symbols.Empty} {
		if w := runewidth.StringWidth(s); w > cellWidth {
			cellWidth = w
		}
	}

	var sb strings.Builder
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			text, color := cellText(b.Cell(x, y), symbols)
			sb.WriteString(util.Colorize(runewidth.FillRight(text, cellWidth), color, opts.Color))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellText(c board.Cell, symbols Symbols) (string, string) {
	switch c.State {
	case board.Flagged:
		return symbols.Flag, util.ColorRed
	case board.UnsureFlagged:
		return symbols.Unsure, util.ColorYellow
	case board.Open:
		if c.Mine {
			return symbols.Mine, util.ColorBold
		}
		if c.Value == 0 {
			return symbols.Empty, ""
		}
		return strconv.Itoa(int(c.Value)), countColors[c.Value]
	}
	return symbols.Closed, ""
}
