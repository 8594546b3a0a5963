package replay

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-mine-replay/internal/core/numeral"
	"github.com/samber/lo"
)

const (
	itemSeparator       = ";"
	coordinateSeparator = "|"
	timeSeparator       = ":"
	sizeSeparator       = "x"
)

// GrammarParser implements the shared replay grammar. Format versions
// differ only in the values configured here.
type GrammarParser struct {
	Versions      []string
	TimeUnit      time.Duration
	Alphabet      numeral.Alphabet
	SupportToggle bool
	MaxDimension  int // Largest accepted width or height; 0 disables the check
}

// SupportedVersions returns the version tags this grammar accepts.
func (g *GrammarParser) SupportedVersions() []string {
	return g.Versions
}

// ParseMetadata reads "<width>x<height>" as decimal integers.
func (g *GrammarParser) ParseMetadata(field string) (Metadata, error) {
	rawWidth, rawHeight, ok := strings.Cut(field, sizeSeparator)
	if !ok {
		return Metadata{}, malformed("metadata", field, "missing %q between width and height", sizeSeparator)
	}

	width, err := g.parseDimension(field, rawWidth)
	if err != nil {
		return Metadata{}, err
	}
	height, err := g.parseDimension(field, rawHeight)
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{Width: width, Height: height, TimeUnit: g.TimeUnit}, nil
}

func (g *GrammarParser) parseDimension(field, raw string) (int, error) {
	if !isDecimal(raw) {
		return 0, malformed("metadata", field, "dimension %q is not a decimal integer", raw)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, malformed("metadata", field, "dimension %q must be a positive integer", raw)
	}
	if g.MaxDimension > 0 && n > g.MaxDimension {
		return 0, malformed("metadata", field, "dimension %d exceeds the maximum of %d", n, g.MaxDimension)
	}
	return n, nil
}

// ParseMines decodes mine coordinates. Explicit items are "x|y" with
// multi-character tokens; compact items are runs of two-character pairs.
func (g *GrammarParser) ParseMines(field string, meta Metadata) ([]Coordinate, error) {
	var mines []Coordinate

	for _, item := range splitItems(field) {
		if item == "" {
			return nil, malformed("mines", item, "empty item")
		}

		if rawX, rawY, ok := strings.Cut(item, coordinateSeparator); ok {
			c, err := g.coordinate("mines", item, rawX, rawY, meta)
			if err != nil {
				return nil, err
			}
			mines = append(mines, c)
			continue
		}

		runes := []rune(item)
		if len(runes)%2 != 0 {
			return nil, malformed("mines", item, "compact item has an odd number of characters")
		}
		for _, pair := range lo.Chunk(runes, 2) {
			c, err := g.coordinate("mines", item, string(pair[0]), string(pair[1]), meta)
			if err != nil {
				return nil, err
			}
			mines = append(mines, c)
		}
	}

	return mines, nil
}

// ParseOpens decodes open events and assigns their cumulative times.
func (g *GrammarParser) ParseOpens(field string, meta Metadata) ([]OpenEvent, error) {
	var (
		opens []OpenEvent
		clock int64
	)

	for _, item := range splitItems(field) {
		c, delta, err := g.timedItem("opens", item, item, meta)
		if err != nil {
			return nil, err
		}
		if clock, err = advance("opens", item, clock, delta); err != nil {
			return nil, err
		}
		opens = append(opens, OpenEvent{X: c.X, Y: c.Y, Delta: delta, Time: clock})
	}

	return opens, nil
}

// ParseFlags decodes flag events, each ending in a one-character action
// code, and assigns their cumulative times.
func (g *GrammarParser) ParseFlags(field string, meta Metadata) ([]FlagEvent, error) {
	var (
		flags []FlagEvent
		clock int64
	)

	for _, item := range splitItems(field) {
		runes := []rune(item)
		if len(runes) == 0 {
			return nil, malformed("flags", item, "empty item")
		}

		action, err := g.action(item, runes[len(runes)-1])
		if err != nil {
			return nil, err
		}

		c, delta, err := g.timedItem("flags", item, string(runes[:len(runes)-1]), meta)
		if err != nil {
			return nil, err
		}
		if clock, err = advance("flags", item, clock, delta); err != nil {
			return nil, err
		}
		flags = append(flags, FlagEvent{X: c.X, Y: c.Y, Delta: delta, Time: clock, Action: action})
	}

	return flags, nil
}

// timedItem decodes "x|y:delta" or the compact "xydelta" form. item is the
// original text used in errors; body is the part to decode.
func (g *GrammarParser) timedItem(field, item, body string, meta Metadata) (Coordinate, int64, error) {
	if rawX, rest, ok := strings.Cut(body, coordinateSeparator); ok {
		rawY, rawDelta, ok := strings.Cut(rest, timeSeparator)
		if !ok {
			return Coordinate{}, 0, malformed(field, item, "missing %q before the elapsed time", timeSeparator)
		}
		c, err := g.coordinate(field, item, rawX, rawY, meta)
		if err != nil {
			return Coordinate{}, 0, err
		}
		delta, err := parseDelta(field, item, rawDelta)
		return c, delta, err
	}

	runes := []rune(body)
	if len(runes) < 3 {
		return Coordinate{}, 0, malformed(field, item, "compact item needs two coordinates and an elapsed time")
	}
	c, err := g.coordinate(field, item, string(runes[0]), string(runes[1]), meta)
	if err != nil {
		return Coordinate{}, 0, err
	}
	delta, err := parseDelta(field, item, string(runes[2:]))
	return c, delta, err
}

func (g *GrammarParser) coordinate(field, item, rawX, rawY string, meta Metadata) (Coordinate, error) {
	x, err := numeral.Decode(rawX, g.Alphabet)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%s item %q: x coordinate: %w", field, item, err)
	}
	y, err := numeral.Decode(rawY, g.Alphabet)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%s item %q: y coordinate: %w", field, item, err)
	}
	if x >= int64(meta.Width) || y >= int64(meta.Height) {
		return Coordinate{}, malformed(field, item, "coordinate (%d, %d) is outside the %dx%d board", x, y, meta.Width, meta.Height)
	}
	return Coordinate{X: int(x), Y: int(y)}, nil
}

func (g *GrammarParser) action(item string, code rune) (Action, error) {
	switch code {
	case 'P':
		return ActionPlace, nil
	case 'R':
		return ActionRemove, nil
	case 'T':
		if !g.SupportToggle {
			return 0, &UnsupportedActionError{Version: strings.Join(g.Versions, ","), Code: code}
		}
		return ActionToggle, nil
	default:
		return 0, malformed("flags", item, "unknown action code %q", code)
	}
}

func splitItems(field string) []string {
	if field == "" {
		return nil
	}
	return strings.Split(field, itemSeparator)
}

func parseDelta(field, item, raw string) (int64, error) {
	if !isDecimal(raw) {
		return 0, malformed(field, item, "elapsed time %q is not a decimal integer", raw)
	}
	delta, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, malformed(field, item, "elapsed time %q is out of range", raw)
	}
	return delta, nil
}

func advance(field, item string, clock, delta int64) (int64, error) {
	if clock > math.MaxInt64-delta {
		return 0, malformed(field, item, "cumulative time overflows")
	}
	return clock + delta, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
