// Package numeral decodes positional integers written in an arbitrary
// digit alphabet, such as the base-36 game ids and base-62 board
// coordinates used by replay strings.
package numeral

import (
	"fmt"
	"math"
	"strings"
)

// Alphabet is an ordered digit set; a character's position is its value.
type Alphabet string

const (
	// Base36 is digits followed by lowercase letters.
	Base36 Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	// Base62 is digits, uppercase letters, then lowercase letters.
	Base62 Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// Base returns the radix of the alphabet.
func (a Alphabet) Base() int64 {
	return int64(len(a))
}

// DecodeError reports text that cannot be decoded with an alphabet.
type DecodeError struct {
	Text     string
	Position int
	Char     rune
	Reason   string
}

func (e *DecodeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("decode %q: %s", e.Text, e.Reason)
	}
	return fmt.Sprintf("decode %q: character %q at position %d is not a digit", e.Text, e.Char, e.Position)
}

// Decode interprets text as a number in the given alphabet, most
// significant digit first.
func Decode(text string, alphabet Alphabet) (int64, error) {
	if text == "" {
		return 0, &DecodeError{Text: text, Reason: "empty input"}
	}

	base := alphabet.Base()
	var result int64
	for i, ch := range text {
		digit := strings.IndexRune(string(alphabet), ch)
		if digit < 0 {
			return 0, &DecodeError{Text: text, Position: i, Char: ch}
		}
		if result > (math.MaxInt64-int64(digit))/base {
			return 0, &DecodeError{Text: text, Reason: "value overflows int64"}
		}
		result = result*base + int64(digit)
	}
	return result, nil
}

// DecodeBase36 decodes text with the Base36 alphabet.
func DecodeBase36(text string) (int64, error) {
	return Decode(text, Base36)
}

// DecodeBase62 decodes text with the Base62 alphabet.
func DecodeBase62(text string) (int64, error) {
	return Decode(text, Base62)
}
