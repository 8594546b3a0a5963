package sprite

import (
	"image"
	"image/color"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

var (
	tileHidden   = color.RGBA{189, 189, 189, 255}
	tileRevealed = color.RGBA{214, 214, 214, 255}
	tileLight    = color.RGBA{255, 255, 255, 255}
	tileDark     = color.RGBA{123, 123, 123, 255}
	tileGrid     = color.RGBA{160, 160, 160, 255}
	mineBody     = color.RGBA{20, 20, 20, 255}
	flagRed      = color.RGBA{210, 20, 20, 255}
	inkBlack     = color.RGBA{0, 0, 0, 255}
)

var numberColors = [9]color.RGBA{
	{},
	{25, 25, 220, 255},
	{0, 130, 0, 255},
	{210, 20, 20, 255},
	{0, 0, 135, 255},
	{130, 0, 0, 255},
	{0, 128, 128, 255},
	{0, 0, 0, 255},
	{110, 110, 110, 255},
}

// DefaultAtlas draws the built-in glyph set at glyphSize pixels.
// The result depends only on glyphSize.
func DefaultAtlas(glyphSize int) *Atlas {
	if glyphSize < 8 {
		glyphSize = 8
	}
	atlas := &Atlas{size: glyphSize}
	for n := 0; n <= 8; n++ {
		tile := revealedTile(glyphSize)
		if n > 0 {
			drawLabel(tile, strconv.Itoa(n), numberColors[n])
		}
		atlas.glyphs[n] = tile
	}

	mine := revealedTile(glyphSize)
	drawMine(mine)
	atlas.glyphs[GlyphMine] = mine

	atlas.glyphs[GlyphClosed] = hiddenTile(glyphSize)

	flag := hiddenTile(glyphSize)
	drawFlag(flag)
	atlas.glyphs[GlyphFlag] = flag

	unsure := hiddenTile(glyphSize)
	drawLabel(unsure, "?", inkBlack)
	atlas.glyphs[GlyphUnsure] = unsure

	return atlas
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	xdraw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, xdraw.Src)
}

func bevel(size int) int {
	b := size / 10
	if b < 1 {
		b = 1
	}
	return b
}

func hiddenTile(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fillRect(img, img.Bounds(), tileHidden)

	b := bevel(size)
	for i := 0; i < b; i++ {
		// Light edges top and left, dark edges bottom and right.
		fillRect(img, image.Rect(0, i, size-i, i+1), tileLight)
		fillRect(img, image.Rect(i, 0, i+1, size-i), tileLight)
		fillRect(img, image.Rect(i+1, size-1-i, size, size-i), tileDark)
		fillRect(img, image.Rect(size-1-i, i+1, size-i, size), tileDark)
	}
	return img
}

func revealedTile(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fillRect(img, img.Bounds(), tileRevealed)
	fillRect(img, image.Rect(0, 0, size, 1), tileGrid)
	fillRect(img, image.Rect(0, 0, 1, size), tileGrid)
	return img
}

// drawLabel renders s with basicfont and scales it to roughly 60% of the tile.
func drawLabel(tile *image.RGBA, s string, c color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Ceil()
	height := face.Metrics().Height.Ceil()

	label := image.NewRGBA(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  label,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)

	size := tile.Bounds().Dx()
	h := size * 6 / 10
	w := h * width / height
	if w < 1 {
		w = 1
	}
	x0 := (size - w) / 2
	y0 := (size - h) / 2
	xdraw.NearestNeighbor.Scale(tile, image.Rect(x0, y0, x0+w, y0+h), label, label.Bounds(), xdraw.Over, nil)
}

func drawMine(tile *image.RGBA) {
	size := tile.Bounds().Dx()
	c := size / 2
	r := size * 3 / 10
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := x-c, y-c
			if dx*dx+dy*dy <= r*r {
				tile.SetRGBA(x, y, mineBody)
			}
		}
	}
	// Spikes.
	t := bevel(size)
	fillRect(tile, image.Rect(c-t/2-t%2, c-r-t, c+t/2+1, c+r+t), mineBody)
	fillRect(tile, image.Rect(c-r-t, c-t/2-t%2, c+r+t, c+t/2+1), mineBody)
	// Highlight.
	hl := r / 3
	if hl < 1 {
		hl = 1
	}
	fillRect(tile, image.Rect(c-r/2, c-r/2, c-r/2+hl, c-r/2+hl), tileLight)
}

func drawFlag(tile *image.RGBA) {
	size := tile.Bounds().Dx()
	t := bevel(size)
	pole := size/2 + t
	top := size / 5
	bottom := size * 4 / 5

	fillRect(tile, image.Rect(pole, top, pole+t, bottom), inkBlack)
	fillRect(tile, image.Rect(size/4, bottom-t, size*3/4+1, bottom), inkBlack)

	// Pennant pointing left from the pole.
	height := (bottom - top) / 2
	for y := 0; y < height; y++ {
		half := height / 2
		dist := y - half
		if dist < 0 {
			dist = -dist
		}
		length := (half - dist) * (pole - size/5) / max(half, 1)
		fillRect(tile, image.Rect(pole-length, top+y, pole, top+y+1), flagRed)
	}
}
