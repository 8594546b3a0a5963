package timeline

import (
	"strings"

	"github.com/penwyp/go-mine-replay/internal/core/replay"
)

// KindSet is the set of event kinds present at one tick.
type KindSet uint8

const (
	hasOpen KindSet = 1 << iota
	hasFlag
)

func kindBit(k replay.Kind) KindSet {
	switch k {
	case replay.KindOpen:
		return hasOpen
	case replay.KindFlag:
		return hasFlag
	}
	return 0
}

// With returns the set extended by k.
func (s KindSet) With(k replay.Kind) KindSet {
	return s | kindBit(k)
}

// Has reports whether k is in the set.
func (s KindSet) Has(k replay.Kind) bool {
	bit := kindBit(k)
	return bit != 0 && s&bit != 0
}

func (s KindSet) String() string {
	var parts []string
	if s.Has(replay.KindFlag) {
		parts = append(parts, replay.KindFlag.String())
	}
	if s.Has(replay.KindOpen) {
		parts = append(parts, replay.KindOpen.String())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Tick is a distinct cumulative time at which at least one event happens.
type Tick struct {
	Time  int64
	Kinds KindSet
}
