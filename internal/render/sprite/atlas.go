// Package sprite provides the glyph atlas used to draw board cells.
package sprite

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/penwyp/go-mine-replay/internal/render"
)

// Glyph indexes one tile in the atlas strip.
type Glyph int

// Strip order: counts 0-8, then mine, closed, flag and unsure flag.
const (
	GlyphMine Glyph = iota + 9
	GlyphClosed
	GlyphFlag
	GlyphUnsure

	GlyphCount = 13
)

const (
	// StillGlyphSize is the default tile size for still images.
	StillGlyphSize = 32
	// AnimatedGlyphSize is the default tile size for animations.
	AnimatedGlyphSize = 20
)

// GlyphNumber returns the glyph for an adjacent-mine count.
func GlyphNumber(n uint8) Glyph {
	if n > 8 {
		n = 8
	}
	return Glyph(n)
}

func (g Glyph) String() string {
	switch {
	case g >= 0 && g <= 8:
		return fmt.Sprintf("number-%d", int(g))
	case g == GlyphMine:
		return "mine"
	case g == GlyphClosed:
		return "closed"
	case g == GlyphFlag:
		return "flag"
	case g == GlyphUnsure:
		return "unsure"
	}
	return fmt.Sprintf("glyph(%d)", int(g))
}

// Atlas is an immutable set of square glyphs of one size.
type Atlas struct {
	size   int
	glyphs [GlyphCount]*image.RGBA
}

// Size returns the glyph edge length in pixels.
func (a *Atlas) Size() int {
	return a.size
}

// Glyph returns the tile for g.
func (a *Atlas) Glyph(g Glyph) *image.RGBA {
	if g < 0 || int(g) >= GlyphCount {
		return a.glyphs[GlyphClosed]
	}
	return a.glyphs[g]
}

// LoadAtlas decodes a PNG strip of GlyphCount square tiles laid out left to
// right. The tile size is the strip height. When glyphSize is positive and
// differs from it, the atlas is rescaled.
func LoadAtlas(r io.Reader, glyphSize int) (*Atlas, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, render.Wrap("atlas", fmt.Errorf("decode strip: %w", err))
	}
	atlas, err := FromStrip(img)
	if err != nil {
		return nil, err
	}
	if glyphSize > 0 && glyphSize != atlas.size {
		return atlas.Scaled(glyphSize), nil
	}
	return atlas, nil
}

// FromStrip slices an already decoded strip.
func FromStrip(img image.Image) (*Atlas, error) {
	bounds := img.Bounds()
	size := bounds.Dy()
	if size <= 0 || bounds.Dx() != size*GlyphCount {
		return nil, render.Errorf("atlas", "strip is %dx%d, want %d square tiles in one row",
			bounds.Dx(), bounds.Dy(), GlyphCount)
	}

	atlas := &Atlas{size: size}
	for i := range atlas.glyphs {
		tile := image.NewRGBA(image.Rect(0, 0, size, size))
		src := image.Pt(bounds.Min.X+i*size, bounds.Min.Y)
		xdraw.Draw(tile, tile.Bounds(), img, src, xdraw.Src)
		atlas.glyphs[i] = tile
	}
	return atlas, nil
}

// Scaled returns a copy of the atlas resampled to size with
// nearest-neighbour interpolation.
func (a *Atlas) Scaled(size int) *Atlas {
	if size <= 0 || size == a.size {
		return a
	}
	scaled := &Atlas{size: size}
	for i, glyph := range a.glyphs {
		tile := image.NewRGBA(image.Rect(0, 0, size, size))
		xdraw.NearestNeighbor.Scale(tile, tile.Bounds(), glyph, glyph.Bounds(), xdraw.Src, nil)
		scaled.glyphs[i] = tile
	}
	return scaled
}

// Strip lays the glyphs out as a single PNG-ready image in atlas order.
func (a *Atlas) Strip() *image.RGBA {
	strip := image.NewRGBA(image.Rect(0, 0, a.size*GlyphCount, a.size))
	for i, glyph := range a.glyphs {
		dst := image.Rect(i*a.size, 0, (i+1)*a.size, a.size)
		xdraw.Draw(strip, dst, glyph, image.Point{}, xdraw.Src)
	}
	return strip
}

// WritePNG encodes the atlas strip as PNG.
func (a *Atlas) WritePNG(w io.Writer) error {
	return render.Wrap("atlas", png.Encode(w, a.Strip()))
}

// Colors returns every distinct opaque colour used by the glyphs in a
// stable order.
func (a *Atlas) Colors() []color.RGBA {
	seen := make(map[color.RGBA]struct{})
	for _, glyph := range a.glyphs {
		b := glyph.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := glyph.RGBAAt(x, y)
				c.A = 0xff
				seen[c] = struct{}{}
			}
		}
	}

	colors := make([]color.RGBA, 0, len(seen))
	for c := range seen {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		return packRGB(colors[i]) < packRGB(colors[j])
	})
	return colors
}

func packRGB(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
