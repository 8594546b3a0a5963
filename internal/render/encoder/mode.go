// Package encoder drives a replay through the board and renderer and
// produces PNG or GIF bytes.
package encoder

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-mine-replay/internal/core/replay"
)

// Mode selects between a single still image and an animation.
type Mode int

const (
	ModeStill Mode = iota
	ModeAnimated
)

// MaxAnimatedDimension is the largest width or height rendered as an
// animation. Larger boards are always rendered still.
const MaxAnimatedDimension = 32

func (m Mode) String() string {
	if m == ModeAnimated {
		return "animated"
	}
	return "still"
}

// ContentType returns the MIME type of the bytes produced in this mode.
func (m Mode) ContentType() string {
	if m == ModeAnimated {
		return "image/gif"
	}
	return "image/png"
}

// Extension returns the file extension, with dot, for this mode.
func (m Mode) Extension() string {
	if m == ModeAnimated {
		return ".gif"
	}
	return ".png"
}

// ParseMode accepts "still", "png", "animated" and "gif".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "still", "png":
		return ModeStill, nil
	case "animated", "gif":
		return ModeAnimated, nil
	}
	return ModeStill, fmt.Errorf("unknown render mode %q", s)
}

// SelectMode applies the size policy: boards wider or taller than
// MaxAnimatedDimension are rendered still even when an animation was
// requested.
func SelectMode(meta replay.Metadata, animated bool) Mode {
	return SelectModeWithLimit(meta, animated, MaxAnimatedDimension)
}

// SelectModeWithLimit is SelectMode with a custom dimension limit.
func SelectModeWithLimit(meta replay.Metadata, animated bool, limit int) Mode {
	if !animated || meta.Width > limit || meta.Height > limit {
		return ModeStill
	}
	return ModeAnimated
}
