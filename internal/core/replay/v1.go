package replay

import (
	"time"

	"github.com/penwyp/go-mine-replay/internal/core/numeral"
)

const (
	// V1TimeUnit is the length of one elapsed-time unit in version 1 replays.
	V1TimeUnit = 50 * time.Millisecond

	// DefaultMaxDimension bounds board sides accepted by built-in parsers.
	DefaultMaxDimension = 1024
)

// NewV1Parser returns the parser for the baseline "1" format: base-62
// coordinates, 50 ms time units and no toggle action.
func NewV1Parser() *GrammarParser {
	return &GrammarParser{
		Versions:      []string{"1"},
		TimeUnit:      V1TimeUnit,
		Alphabet:      numeral.Base62,
		SupportToggle: false,
		MaxDimension:  DefaultMaxDimension,
	}
}
