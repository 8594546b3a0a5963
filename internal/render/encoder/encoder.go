package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/penwyp/go-mine-replay/internal/core/board"
	"github.com/penwyp/go-mine-replay/internal/core/replay"
	"github.com/penwyp/go-mine-replay/internal/core/timeline"
	"github.com/penwyp/go-mine-replay/internal/render"
	"github.com/penwyp/go-mine-replay/internal/render/frame"
	"github.com/penwyp/go-mine-replay/internal/render/sprite"
	"github.com/penwyp/go-mine-replay/internal/util"
)

const (
	// InitialHold is how long the all-closed opening frame is shown.
	InitialHold = time.Second
	// FinalHold is how long the last frame is shown before looping.
	FinalHold = 15 * time.Second
	// MaxHold is the longest delay a GIF frame can declare.
	MaxHold = 65535 * 10 * time.Millisecond
)

// Encoder renders replays with one atlas.
type Encoder struct {
	atlas *sprite.Atlas
}

// New creates an encoder drawing with atlas.
func New(atlas *sprite.Atlas) *Encoder {
	return &Encoder{atlas: atlas}
}

// Encode renders r in the given mode.
func (e *Encoder) Encode(r *replay.Replay, mode Mode) ([]byte, error) {
	if mode == ModeAnimated {
		return e.EncodeAnimated(r)
	}
	return e.EncodeStill(r)
}

// EncodeStill applies every flag and then every open event, ignoring
// timing, and returns one PNG frame.
func (e *Encoder) EncodeStill(r *replay.Replay) ([]byte, error) {
	b, renderer, err := e.prepare(r)
	if err != nil {
		return nil, err
	}

	timeline.ApplyAll(b, r)
	canvas, err := renderer.Render(b, b.ProgressPercentage())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, canvas); err != nil {
		return nil, render.Wrap("encode", err)
	}
	util.LogDebugf("Encoded still %dx%d board: %d bytes", r.Metadata.Width, r.Metadata.Height, buf.Len())
	return buf.Bytes(), nil
}

// EncodeAnimated returns a looping GIF with one opening frame and one frame
// per tick.
func (e *Encoder) EncodeAnimated(r *replay.Replay) ([]byte, error) {
	b, renderer, err := e.prepare(r)
	if err != nil {
		return nil, err
	}

	pal := e.palette()
	anim := &gif.GIF{LoopCount: 0}
	addFrame := func(pct int, hold time.Duration) error {
		canvas, err := renderer.Render(b, pct)
		if err != nil {
			return err
		}
		anim.Image = append(anim.Image, toPaletted(canvas, pal))
		anim.Delay = append(anim.Delay, centiseconds(hold))
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
		return nil
	}

	if err := addFrame(0, InitialHold); err != nil {
		return nil, err
	}

	player := timeline.NewPlayer(b, r)
	ticks := player.Ticks()
	for i := 0; ; i++ {
		tick, ok := player.Step()
		if !ok {
			break
		}
		pct, hold := i*100/len(ticks), FinalHold
		if i == len(ticks)-1 {
			pct = 100
		} else {
			hold = scaleGap(ticks[i+1].Time-tick.Time, r.Metadata.TimeUnit)
		}
		if err := addFrame(pct, hold); err != nil {
			return nil, err
		}
	}

	return encodeGIF(anim)
}

func (e *Encoder) prepare(r *replay.Replay) (*board.Board, *frame.Renderer, error) {
	if e.atlas == nil {
		return nil, nil, render.Errorf("compose", "no sprite atlas")
	}
	b, err := board.New(r.Metadata, r.Mines)
	if err != nil {
		return nil, nil, render.Wrap("compose", err)
	}
	renderer, err := frame.NewRenderer(e.atlas, r.Metadata)
	if err != nil {
		return nil, nil, err
	}
	return b, renderer, nil
}

func encodeGIF(anim *gif.GIF) ([]byte, error) {
	if len(anim.Image) == 0 {
		return nil, render.Wrap("encode", render.ErrEmptyFrameSequence)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, render.Wrap("encode", err)
	}
	util.LogDebugf("Encoded animation: %d frames, %d bytes", len(anim.Image), buf.Len())
	return buf.Bytes(), nil
}

// palette holds every atlas colour plus the progress strip colours. Atlases
// with more than 256 colours fall back to the Plan 9 palette.
func (e *Encoder) palette() color.Palette {
	colors := e.atlas.Colors()
	pal := make(color.Palette, 0, len(colors)+2)
	seen := make(map[color.RGBA]bool, len(colors)+2)
	for _, c := range append([]color.RGBA{frame.BackgroundColor, frame.ProgressColor}, colors...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		pal = append(pal, c)
	}
	if len(pal) > 256 {
		return palette.Plan9
	}
	return pal
}

func toPaletted(src *image.RGBA, pal color.Palette) *image.Paletted {
	dst := image.NewPaletted(src.Bounds(), pal)
	xdraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, xdraw.Src)
	return dst
}

// scaleGap converts a tick gap to a duration, saturating at MaxHold.
func scaleGap(gap int64, unit time.Duration) time.Duration {
	if gap <= 0 || unit <= 0 {
		return 0
	}
	if gap > int64(MaxHold/unit) {
		return MaxHold
	}
	return time.Duration(gap) * unit
}

// centiseconds converts d to a GIF delay, saturating at MaxHold.
func centiseconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	if d > MaxHold {
		d = MaxHold
	}
	return int(d / (10 * time.Millisecond))
}
