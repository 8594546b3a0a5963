package preview

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/penwyp/go-mine-replay/internal/core/board"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// DefaultWidth is used when the output is not a terminal
const DefaultWidth = 80

// Sizer measures text and the terminal it is written to
type Sizer struct {
	width int
}

// NewSizer measures f, falling back to DefaultWidth when f is not a
// terminal
func NewSizer(f *os.File) *Sizer {
	width := DefaultWidth
	if f != nil && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	util.LogDebugf("Preview width %d", width)
	return &Sizer{width: width}
}

// FixedSizer always reports width
func FixedSizer(width int) *Sizer {
	return &Sizer{width: width}
}

// Width returns the available columns
func (s *Sizer) Width() int {
	return s.width
}

// PadString pads s to width display columns
func (s *Sizer) PadString(text string, width int, leftAlign bool) string {
	actual := runewidth.StringWidth(text)
	if actual >= width {
		return text
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return text + padding
	}
	return padding + text
}

// BoardWidth returns the columns Render needs for b
func (s *Sizer) BoardWidth(b *board.Board, opts Options) int {
	line := Render(b, opts)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if opts.Color {
		line = stripANSI(line)
	}
	return runewidth.StringWidth(line)
}

// Fits reports whether b renders within the available width
func (s *Sizer) Fits(b *board.Board, opts Options) bool {
	return s.BoardWidth(b, opts) <= s.width
}

func stripANSI(text string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range text {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
