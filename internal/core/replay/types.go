package replay

import (
	"math"
	"time"
)

// Metadata describes the board a replay was recorded on.
type Metadata struct {
	Width    int
	Height   int
	TimeUnit time.Duration // Real time represented by one elapsed-time unit
}

// Contains reports whether (x, y) lies on the board.
func (m Metadata) Contains(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// Cells returns the number of cells on the board.
func (m Metadata) Cells() int {
	return m.Width * m.Height
}

// Coordinate is a 0-indexed board position.
type Coordinate struct {
	X int
	Y int
}

// Action is the effect a flag event has on a cell.
type Action int

const (
	ActionPlace Action = iota
	ActionRemove
	ActionToggle
)

func (a Action) String() string {
	switch a {
	case ActionPlace:
		return "place"
	case ActionRemove:
		return "remove"
	case ActionToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Kind identifies which event stream an event belongs to.
type Kind int

const (
	KindOpen Kind = iota
	KindFlag
)

func (k Kind) String() string {
	if k == KindFlag {
		return "flag"
	}
	return "open"
}

// OpenEvent reveals a cell.
type OpenEvent struct {
	X     int
	Y     int
	Delta int64 // Units since the previous open event
	Time  int64 // Units since the first open event's clock start
}

// FlagEvent changes a cell's flag marker.
type FlagEvent struct {
	X      int
	Y      int
	Delta  int64 // Units since the previous flag event
	Time   int64 // Units since the first flag event's clock start
	Action Action
}

// Replay is a fully decoded replay string.
type Replay struct {
	Version  string
	Metadata Metadata
	Mines    []Coordinate
	Opens    []OpenEvent
	Flags    []FlagEvent
}

// Duration returns the span covered by the later of the two event clocks.
func (r *Replay) Duration() time.Duration {
	var last int64
	if n := len(r.Opens); n > 0 {
		last = r.Opens[n-1].Time
	}
	if n := len(r.Flags); n > 0 && r.Flags[n-1].Time > last {
		last = r.Flags[n-1].Time
	}
	unit := r.Metadata.TimeUnit
	if unit > 0 && last > int64(math.MaxInt64/unit) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(last) * unit
}
