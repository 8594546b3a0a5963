package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const base62Digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ReplayBuilder assembles replay strings in the explicit item encoding
type ReplayBuilder struct {
	version string
	width   int
	height  int
	mines   []string
	opens   []string
	flags   []string
}

// NewReplayBuilder creates a builder for a version 1 replay of the given size
func NewReplayBuilder(width, height int) *ReplayBuilder {
	return &ReplayBuilder{
		version: "1",
		width:   width,
		height:  height,
	}
}

// Version overrides the version tag
func (b *ReplayBuilder) Version(version string) *ReplayBuilder {
	b.version = version
	return b
}

// Mine adds a mine at (x, y)
func (b *ReplayBuilder) Mine(x, y int) *ReplayBuilder {
	b.mines = append(b.mines, fmt.Sprintf("%s|%s", EncodeBase62(x), EncodeBase62(y)))
	return b
}

// Open adds an open event delta units after the previous open
func (b *ReplayBuilder) Open(x, y int, delta int64) *ReplayBuilder {
	b.opens = append(b.opens, fmt.Sprintf("%s|%s:%d", EncodeBase62(x), EncodeBase62(y), delta))
	return b
}

// Flag adds a flag event delta units after the previous flag; code is P, R or T
func (b *ReplayBuilder) Flag(x, y int, delta int64, code byte) *ReplayBuilder {
	b.flags = append(b.flags, fmt.Sprintf("%s|%s:%d%c", EncodeBase62(x), EncodeBase62(y), delta, code))
	return b
}

// String renders the replay text
func (b *ReplayBuilder) String() string {
	return fmt.Sprintf("%s=%dx%d+%s+%s+%s",
		b.version, b.width, b.height,
		strings.Join(b.mines, ";"),
		strings.Join(b.opens, ";"),
		strings.Join(b.flags, ";"))
}

// WriteFile writes the replay text to dir/name and returns the path
func (b *ReplayBuilder) WriteFile(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// EncodeBase62 writes n with the replay coordinate alphabet
func EncodeBase62(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{base62Digits[n%62]}, digits...)
		n /= 62
	}
	return string(digits)
}
