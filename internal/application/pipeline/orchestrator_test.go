package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-mine-replay/internal/core/replay"
	"github.com/penwyp/go-mine-replay/internal/data/store"
	"github.com/penwyp/go-mine-replay/internal/provider"
	"github.com/penwyp/go-mine-replay/internal/render"
	"github.com/penwyp/go-mine-replay/internal/render/encoder"
	"github.com/penwyp/go-mine-replay/internal/render/sprite"
	"github.com/penwyp/go-mine-replay/internal/testing/fixtures"
)

type fakeProvider struct {
	games map[string]*provider.GameData
	calls int
}

func (f *fakeProvider) ID() string   { return "fake" }
func (f *fakeProvider) Name() string { return "Fake" }

func (f *fakeProvider) FetchGame(_ context.Context, gameID string) (*provider.GameData, error) {
	f.calls++
	if g, ok := f.games[gameID]; ok {
		return g, nil
	}
	return nil, provider.ErrGameDataNotFound
}

func strPtr(s string) *string { return &s }

func newOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(&Config{StillGlyphSize: 8, AnimatedGlyphSize: 8}, opts...)
	require.NoError(t, err)
	return o
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, sprite.StillGlyphSize, cfg.StillGlyphSize)
	assert.Equal(t, sprite.AnimatedGlyphSize, cfg.AnimatedGlyphSize)
	assert.Equal(t, encoder.MaxAnimatedDimension, cfg.MaxAnimatedDimension)

	assert.Error(t, (&Config{StillGlyphSize: 4}).Validate())
	assert.Error(t, (&Config{AnimatedGlyphSize: 1000}).Validate())
}

func TestRenderStill(t *testing.T) {
	o := newOrchestrator(t)
	res, err := o.Render("1=3x3+++", false)
	require.NoError(t, err)

	assert.Equal(t, encoder.ModeStill, res.Mode)
	assert.Equal(t, "image/png", res.ContentType)
	img, err := png.Decode(bytes.NewReader(res.Bytes))
	require.NoError(t, err)
	assert.Equal(t, 24, img.Bounds().Dx())
}

func TestRenderAnimated(t *testing.T) {
	o := newOrchestrator(t)
	text := fixtures.NewReplayBuilder(4, 4).Mine(0, 0).Open(3, 3, 2).String()

	res, err := o.Render(text, true)
	require.NoError(t, err)
	assert.Equal(t, encoder.ModeAnimated, res.Mode)
	assert.Equal(t, "image/gif", res.ContentType)

	anim, err := gif.DecodeAll(bytes.NewReader(res.Bytes))
	require.NoError(t, err)
	assert.Len(t, anim.Image, 2)
}

func TestRenderLargeBoardIsStill(t *testing.T) {
	o := newOrchestrator(t)
	res, err := o.Render("1=33x5+++", true)
	require.NoError(t, err)
	assert.Equal(t, encoder.ModeStill, res.Mode)
	assert.Equal(t, replay.Metadata{Width: 33, Height: 5, TimeUnit: replay.V1TimeUnit}, res.Metadata)
}

func TestRenderPropagatesParseErrors(t *testing.T) {
	o := newOrchestrator(t)

	_, err := o.Render("9=3x3+++", false)
	var versionErr *replay.UnsupportedVersionError
	assert.True(t, errors.As(err, &versionErr))

	_, err = o.Render("1=3x3+++12T", false)
	var actionErr *replay.UnsupportedActionError
	assert.True(t, errors.As(err, &actionErr))
}

func TestRenderRejectsOversizedBoard(t *testing.T) {
	o, err := NewOrchestrator(&Config{})
	require.NoError(t, err)

	_, err = o.Render("1=1024x1024+++", true)
	assert.ErrorIs(t, err, render.ErrCanvasTooLarge)
}

func TestRenderWithAtlasFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, sprite.DefaultAtlas(16).WritePNG(f))
	require.NoError(t, f.Close())

	o, err := NewOrchestrator(&Config{AtlasPath: path, StillGlyphSize: 12, AnimatedGlyphSize: 10})
	require.NoError(t, err)

	res, err := o.Render("1=2x2+++", false)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(res.Bytes))
	require.NoError(t, err)
	assert.Equal(t, 24, img.Bounds().Dx())

	_, err = NewOrchestrator(&Config{AtlasPath: filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	o := newOrchestrator(t)
	text := fixtures.NewReplayBuilder(3, 3).
		Mine(0, 0).
		Open(2, 2, 20).
		Flag(0, 0, 10, 'P').
		Flag(0, 0, 10, 'R').
		String()

	s, err := o.Inspect(text, true)
	require.NoError(t, err)
	assert.Equal(t, "1", s.Version)
	assert.Equal(t, 3, s.Width)
	assert.Equal(t, 1, s.Mines)
	assert.Equal(t, 1, s.Opens)
	assert.Equal(t, 2, s.Flags)
	assert.Equal(t, 2, s.Ticks) // 10 and 20
	assert.Equal(t, int64(1000), s.DurationMs)
	assert.Equal(t, 100, s.Progress)
	assert.Equal(t, "animated", s.Mode)
	require.NotNil(t, s.Board)
	assert.Equal(t, 8, s.Board.OpenedCount())
}

func TestRenderGame(t *testing.T) {
	fake := &fakeProvider{games: map[string]*provider.GameData{
		"1": {GameData: strPtr("1=3x3+00+227+"), Won: true},
		"2": {Won: false},
	}}
	db, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	o, err := NewOrchestrator(
		&Config{StillGlyphSize: 8, AnimatedGlyphSize: 8, CacheRenders: true},
		WithGameSource(provider.NewRegistry(fake)),
		WithRenderCache(db),
	)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := o.RenderGame(ctx, "fake", "1", true)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, encoder.ModeAnimated, first.Mode)
	assert.True(t, first.Game.Won)

	second, err := o.RenderGame(ctx, "fake", "1", true)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Bytes, second.Bytes)

	still, err := o.RenderGame(ctx, "fake", "1", false)
	require.NoError(t, err)
	assert.False(t, still.Cached)
	assert.Equal(t, "image/png", still.ContentType)

	_, err = o.RenderGame(ctx, "fake", "2", false)
	assert.True(t, errors.Is(err, provider.ErrGameDataNotFound))

	_, err = o.RenderGame(ctx, "fake", "404", false)
	assert.True(t, errors.Is(err, provider.ErrGameDataNotFound))

	_, err = o.RenderGame(ctx, "other", "1", false)
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))
}

func TestRenderGameCacheSeparatesAtlases(t *testing.T) {
	fake := &fakeProvider{games: map[string]*provider.GameData{
		"1": {GameData: strPtr("1=3x3+00+227+")},
	}}
	db, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	path := filepath.Join(t.TempDir(), "atlas.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, sprite.DefaultAtlas(16).WritePNG(f))
	require.NoError(t, f.Close())

	build := func(atlasPath string) *Orchestrator {
		o, err := NewOrchestrator(
			&Config{AtlasPath: atlasPath, StillGlyphSize: 8, AnimatedGlyphSize: 8, CacheRenders: true},
			WithGameSource(provider.NewRegistry(fake)),
			WithRenderCache(db),
		)
		require.NoError(t, err)
		return o
	}
	ctx := context.Background()

	builtin, err := build("").RenderGame(ctx, "fake", "1", false)
	require.NoError(t, err)
	assert.False(t, builtin.Cached)

	custom, err := build(path).RenderGame(ctx, "fake", "1", false)
	require.NoError(t, err)
	assert.False(t, custom.Cached)

	again, err := build(path).RenderGame(ctx, "fake", "1", false)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, custom.Bytes, again.Bytes)
}

func TestRenderGameWithoutProviders(t *testing.T) {
	o := newOrchestrator(t)
	_, err := o.RenderGame(context.Background(), "greev", "1", false)
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))
}

func TestInspectGame(t *testing.T) {
	fake := &fakeProvider{games: map[string]*provider.GameData{
		"1": {GameData: strPtr("1=3x3+00+227+"), UUID: "u"},
	}}
	o := newOrchestrator(t, WithGameSource(provider.NewRegistry(fake)))

	s, err := o.InspectGame(context.Background(), "fake", "1")
	require.NoError(t, err)
	assert.Equal(t, "u", s.Game.UUID)
	assert.Equal(t, 100, s.Progress)
	assert.True(t, strings.HasSuffix(s.Duration, "s"))
}

type namedProvider struct {
	fakeProvider
	names map[string]string
}

func (n *namedProvider) FetchPlayerName(_ context.Context, uuid string) (*provider.PlayerData, error) {
	if name, ok := n.names[uuid]; ok {
		return &provider.PlayerData{Name: name}, nil
	}
	return nil, provider.ErrGameDataNotFound
}

func TestInspectGameResolvesPlayerName(t *testing.T) {
	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))

	named := &namedProvider{
		fakeProvider: fakeProvider{games: map[string]*provider.GameData{
			"1": {GameData: strPtr("1=3x3+00+227+"), UUID: "u"},
			"2": {GameData: strPtr("1=3x3+00+227+"), UUID: "stranger"},
		}},
		names: map[string]string{"u": "Alice"},
	}
	cached := provider.NewCachedProvider(named, st)
	o := newOrchestrator(t, WithGameSource(provider.NewRegistry(cached)))

	s, err := o.InspectGame(context.Background(), "fake", "1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", s.PlayerName)

	s, err = o.InspectGame(context.Background(), "fake", "2")
	require.NoError(t, err)
	assert.Empty(t, s.PlayerName)
}
