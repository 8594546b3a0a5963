package pipeline

import (
	"fmt"

	"github.com/penwyp/go-mine-replay/internal/render/encoder"
	"github.com/penwyp/go-mine-replay/internal/render/sprite"
)

// Config contains configuration for the render pipeline
type Config struct {
	// Sprite settings
	AtlasPath         string // PNG strip; empty uses the built-in atlas
	StillGlyphSize    int
	AnimatedGlyphSize int

	// Boards wider or taller than this are always rendered still
	MaxAnimatedDimension int

	// Cache rendered provider games
	CacheRenders bool
}

// Validate fills defaults and rejects impossible values
func (c *Config) Validate() error {
	if c.StillGlyphSize == 0 {
		c.StillGlyphSize = sprite.StillGlyphSize
	}
	if c.AnimatedGlyphSize == 0 {
		c.AnimatedGlyphSize = sprite.AnimatedGlyphSize
	}
	if c.MaxAnimatedDimension == 0 {
		c.MaxAnimatedDimension = encoder.MaxAnimatedDimension
	}
	if c.StillGlyphSize < 8 || c.StillGlyphSize > 256 {
		return fmt.Errorf("still glyph size %d out of range 8-256", c.StillGlyphSize)
	}
	if c.AnimatedGlyphSize < 8 || c.AnimatedGlyphSize > 256 {
		return fmt.Errorf("animated glyph size %d out of range 8-256", c.AnimatedGlyphSize)
	}
	if c.MaxAnimatedDimension < 0 {
		return fmt.Errorf("max animated dimension must not be negative")
	}
	return nil
}
