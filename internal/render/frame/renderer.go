// Package frame composites board state onto a persistent canvas.
package frame

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/penwyp/go-mine-replay/internal/core/board"
	"github.com/penwyp/go-mine-replay/internal/core/replay"
	"github.com/penwyp/go-mine-replay/internal/render"
	"github.com/penwyp/go-mine-replay/internal/render/sprite"
)

const (
	// ProgressHeight is the height of the progress strip below the grid.
	ProgressHeight = 4
	// MaxCanvasPixels bounds the canvas a single render may allocate.
	MaxCanvasPixels = 1 << 24
)

var (
	ProgressColor   = color.RGBA{103, 149, 60, 255}
	BackgroundColor = color.RGBA{0, 0, 0, 255}
)

// Renderer owns one canvas for the lifetime of a render session. Only
// dirty cells are redrawn; the progress strip is redrawn on every call.
type Renderer struct {
	atlas  *sprite.Atlas
	meta   replay.Metadata
	canvas *image.RGBA
	grid   int // height of the cell area in pixels
}

// NewRenderer allocates a canvas for a board described by meta.
func NewRenderer(atlas *sprite.Atlas, meta replay.Metadata) (*Renderer, error) {
	if atlas == nil {
		return nil, render.Errorf("compose", "no sprite atlas")
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, render.Errorf("compose", "invalid board size %dx%d", meta.Width, meta.Height)
	}
	size := atlas.Size()
	pixels := int64(meta.Width*size) * int64(meta.Height*size+ProgressHeight)
	if pixels > MaxCanvasPixels {
		return nil, render.Errorf("compose", "%w: %dx%d board at %dpx glyphs needs %d pixels, limit is %d",
			render.ErrCanvasTooLarge, meta.Width, meta.Height, size, pixels, MaxCanvasPixels)
	}
	grid := meta.Height * size
	return &Renderer{
		atlas:  atlas,
		meta:   meta,
		canvas: image.NewRGBA(image.Rect(0, 0, meta.Width*size, grid+ProgressHeight)),
		grid:   grid,
	}, nil
}

// Bounds returns the canvas bounds.
func (r *Renderer) Bounds() image.Rectangle {
	return r.canvas.Bounds()
}

// Render draws the dirty cells of b, clears their dirty flags and redraws
// the progress strip at percentage. The returned canvas is reused by the
// next call.
func (r *Renderer) Render(b *board.Board, percentage int) (*image.RGBA, error) {
	if b.Width() != r.meta.Width || b.Height() != r.meta.Height {
		return nil, render.Errorf("compose", "board is %dx%d, canvas expects %dx%d",
			b.Width(), b.Height(), r.meta.Width, r.meta.Height)
	}

	size := r.atlas.Size()
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if !b.IsDirty(x, y) {
				continue
			}
			glyph := r.atlas.Glyph(GlyphFor(b.Cell(x, y)))
			dst := image.Rect(x*size, y*size, (x+1)*size, (y+1)*size)
			xdraw.Draw(r.canvas, dst, glyph, glyph.Bounds().Min, xdraw.Src)
			b.ClearDirty(x, y)
		}
	}

	r.drawProgress(percentage)
	return r.canvas, nil
}

func (r *Renderer) drawProgress(percentage int) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	width := r.canvas.Bounds().Dx()
	filled := percentage * width / 100

	xdraw.Draw(r.canvas, image.Rect(0, r.grid, filled, r.grid+ProgressHeight),
		image.NewUniform(ProgressColor), image.Point{}, xdraw.Src)
	xdraw.Draw(r.canvas, image.Rect(filled, r.grid, width, r.grid+ProgressHeight),
		image.NewUniform(BackgroundColor), image.Point{}, xdraw.Src)
}

// GlyphFor selects the atlas tile for a cell.
func GlyphFor(c board.Cell) sprite.Glyph {
	switch c.State {
	case board.Flagged:
		return sprite.GlyphFlag
	case board.UnsureFlagged:
		return sprite.GlyphUnsure
	case board.Open:
		if c.Mine {
			return sprite.GlyphMine
		}
		return sprite.GlyphNumber(c.Value)
	}
	return sprite.GlyphClosed
}
