// Package render turns replays into still or animated images.
package render

import (
	"errors"
	"fmt"
)

// ErrEmptyFrameSequence is returned when an animation would contain no frames.
var ErrEmptyFrameSequence = errors.New("empty frame sequence")

// ErrCanvasTooLarge is returned when a board would need a canvas above the
// pixel budget.
var ErrCanvasTooLarge = errors.New("canvas too large")

// RenderError reports a failure while composing or encoding an image.
type RenderError struct {
	Op  string // compose, encode, atlas
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Errorf builds a RenderError for op.
func Errorf(op, format string, args ...interface{}) error {
	return &RenderError{Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap wraps err in a RenderError for op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RenderError{Op: op, Err: err}
}
