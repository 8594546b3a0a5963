package replay

import "fmt"

// UnsupportedVersionError is returned when no registered parser accepts a
// replay's version tag.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported replay version %q", e.Version)
}

// MalformedFieldError reports a replay field that does not follow the
// grammar: a missing delimiter, a non-numeric literal or a coordinate
// outside the board.
type MalformedFieldError struct {
	Field  string // metadata, mines, opens, flags or replay
	Item   string // Offending item, empty when the whole field is at fault
	Reason string
}

func (e *MalformedFieldError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("malformed %s item %q: %s", e.Field, e.Item, e.Reason)
	}
	return fmt.Sprintf("malformed %s: %s", e.Field, e.Reason)
}

// UnsupportedActionError is returned for a flag action code the replay's
// version does not define.
type UnsupportedActionError struct {
	Version string
	Code    rune
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("flag action %q is not supported by replay version %q", e.Code, e.Version)
}

func malformed(field, item, format string, args ...interface{}) error {
	return &MalformedFieldError{Field: field, Item: item, Reason: fmt.Sprintf(format, args...)}
}
