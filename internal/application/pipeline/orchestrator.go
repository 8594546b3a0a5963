// Package pipeline wires parsing, rendering and providers into the
// operations exposed by the CLI and HTTP server.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/penwyp/go-mine-replay/internal/core/board"
	"github.com/penwyp/go-mine-replay/internal/core/replay"
	"github.com/penwyp/go-mine-replay/internal/core/timeline"
	"github.com/penwyp/go-mine-replay/internal/data/store"
	"github.com/penwyp/go-mine-replay/internal/provider"
	"github.com/penwyp/go-mine-replay/internal/render/encoder"
	"github.com/penwyp/go-mine-replay/internal/render/sprite"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// Result is a rendered replay
type Result struct {
	Bytes       []byte
	ContentType string
	Mode        encoder.Mode
	Metadata    replay.Metadata
	Cached      bool
}

// GameResult is a rendered provider game
type GameResult struct {
	Result
	Game *provider.GameData
}

// Orchestrator coordinates the parser registry, encoders and providers
type Orchestrator struct {
	config  *Config
	parsers *replay.Registry

	still    *encoder.Encoder
	animated *encoder.Encoder
	atlasID  string // builtin, or a prefix of the atlas file's fingerprint

	games   GameSource
	renders RenderCache
}

// Option customises an Orchestrator
type Option func(*Orchestrator)

// WithParsers replaces the default parser registry
func WithParsers(r *replay.Registry) Option {
	return func(o *Orchestrator) { o.parsers = r }
}

// WithGameSource enables fetching games from providers
func WithGameSource(games GameSource) Option {
	return func(o *Orchestrator) { o.games = games }
}

// WithRenderCache stores provider renders in cache
func WithRenderCache(cache RenderCache) Option {
	return func(o *Orchestrator) { o.renders = cache }
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(config *Config, opts ...Option) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	stillAtlas, animatedAtlas, atlasID, err := loadAtlases(config)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		config:   config,
		parsers:  replay.DefaultRegistry(),
		still:    encoder.New(stillAtlas),
		animated: encoder.New(animatedAtlas),
		atlasID:  atlasID,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// builtinAtlasID identifies renders drawn with the procedural atlas.
const builtinAtlasID = "builtin"

func loadAtlases(config *Config) (still, animated *sprite.Atlas, id string, err error) {
	if config.AtlasPath == "" {
		return sprite.DefaultAtlas(config.StillGlyphSize), sprite.DefaultAtlas(config.AnimatedGlyphSize), builtinAtlasID, nil
	}

	data, err := os.ReadFile(config.AtlasPath)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to open atlas: %w", err)
	}

	base, err := sprite.LoadAtlas(bytes.NewReader(data), 0)
	if err != nil {
		return nil, nil, "", err
	}
	id = util.Fingerprint(data)[:16]
	util.LogDebugf("Loaded %d px atlas %s from %s", base.Size(), id, config.AtlasPath)
	return base.Scaled(config.StillGlyphSize), base.Scaled(config.AnimatedGlyphSize), id, nil
}

// Config returns the validated configuration
func (o *Orchestrator) Config() Config {
	return *o.config
}

// Parse decodes replay text with the configured parsers
func (o *Orchestrator) Parse(text string) (*replay.Replay, error) {
	return o.parsers.Parse(text)
}

// Mode returns the mode r would be rendered in
func (o *Orchestrator) Mode(r *replay.Replay, animated bool) encoder.Mode {
	return encoder.SelectModeWithLimit(r.Metadata, animated, o.config.MaxAnimatedDimension)
}

// Render parses text and renders it. Animations are downgraded to still
// images for large boards.
func (o *Orchestrator) Render(text string, animated bool) (*Result, error) {
	r, err := o.Parse(text)
	if err != nil {
		return nil, err
	}
	return o.RenderReplay(r, animated)
}

// RenderReplay renders an already parsed replay
func (o *Orchestrator) RenderReplay(r *replay.Replay, animated bool) (*Result, error) {
	mode := o.Mode(r, animated)
	enc := o.still
	if mode == encoder.ModeAnimated {
		enc = o.animated
	}

	start := time.Now()
	data, err := enc.Encode(r, mode)
	if err != nil {
		return nil, err
	}
	util.LogDebugf("Rendered %dx%d replay as %s in %s (%s)",
		r.Metadata.Width, r.Metadata.Height, mode, time.Since(start).Round(time.Millisecond), util.FormatBytes(len(data)))

	return &Result{
		Bytes:       data,
		ContentType: mode.ContentType(),
		Mode:        mode,
		Metadata:    r.Metadata,
	}, nil
}

// FetchGame returns a provider's record of gameID
func (o *Orchestrator) FetchGame(ctx context.Context, providerID, gameID string) (*provider.GameData, error) {
	if o.games == nil {
		return nil, fmt.Errorf("%w: no providers configured", provider.ErrUnknownProvider)
	}
	p, err := o.games.Get(providerID)
	if err != nil {
		return nil, err
	}
	return p.FetchGame(ctx, gameID)
}

// RenderGame fetches a game from a provider and renders it. Successful
// renders are cached when a render cache is configured.
func (o *Orchestrator) RenderGame(ctx context.Context, providerID, gameID string, animated bool) (*GameResult, error) {
	game, err := o.FetchGame(ctx, providerID, gameID)
	if err != nil {
		return nil, err
	}
	text, err := game.Replay()
	if err != nil {
		return nil, err
	}
	r, err := o.Parse(text)
	if err != nil {
		return nil, err
	}

	mode := o.Mode(r, animated)
	key := store.RenderKey(providerID, gameID, mode.String(), o.atlasID, o.glyphSize(mode))
	if cached := o.cachedRender(ctx, key); cached != nil {
		return &GameResult{
			Result: Result{
				Bytes:       cached.Data,
				ContentType: cached.ContentType,
				Mode:        mode,
				Metadata:    r.Metadata,
				Cached:      true,
			},
			Game: game,
		}, nil
	}

	res, err := o.RenderReplay(r, animated)
	if err != nil {
		return nil, err
	}
	if o.config.CacheRenders && o.renders != nil {
		if err := o.renders.SaveRender(ctx, key, res.ContentType, res.Bytes); err != nil {
			util.LogWarnf("Failed to cache render %s: %v", key, err)
		}
	}
	return &GameResult{Result: *res, Game: game}, nil
}

func (o *Orchestrator) cachedRender(ctx context.Context, key string) *store.Render {
	if !o.config.CacheRenders || o.renders == nil {
		return nil
	}
	cached, err := o.renders.LoadRender(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			util.LogWarnf("Render cache lookup failed: %v", err)
		}
		return nil
	}
	util.LogDebugf("Serving cached render %s", key)
	return cached
}

func (o *Orchestrator) glyphSize(mode encoder.Mode) int {
	if mode == encoder.ModeAnimated {
		return o.config.AnimatedGlyphSize
	}
	return o.config.StillGlyphSize
}

// Summary describes a replay without rendering it
type Summary struct {
	Version    string             `json:"version"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	TimeUnitMs int64              `json:"timeUnitMs"`
	Mines      int                `json:"mines"`
	Opens      int                `json:"opens"`
	Flags      int                `json:"flags"`
	Ticks      int                `json:"ticks"`
	Duration   string             `json:"duration"`
	DurationMs int64              `json:"durationMs"`
	Progress   int                `json:"progress"`
	Mode       string             `json:"mode"`
	Game       *provider.GameData `json:"game,omitempty"`
	PlayerName string             `json:"playerName,omitempty"`
	Board      *board.Board       `json:"-"`
}

// Inspect parses text and summarises it, playing every event onto a board
func (o *Orchestrator) Inspect(text string, animated bool) (*Summary, error) {
	r, err := o.Parse(text)
	if err != nil {
		return nil, err
	}
	return o.Summarize(r, animated)
}

// Summarize summarises an already parsed replay
func (o *Orchestrator) Summarize(r *replay.Replay, animated bool) (*Summary, error) {
	b, err := board.New(r.Metadata, r.Mines)
	if err != nil {
		return nil, err
	}
	timeline.ApplyAll(b, r)

	d := r.Duration()
	return &Summary{
		Version:    r.Version,
		Width:      r.Metadata.Width,
		Height:     r.Metadata.Height,
		TimeUnitMs: r.Metadata.TimeUnit.Milliseconds(),
		Mines:      b.MineCount(),
		Opens:      len(r.Opens),
		Flags:      len(r.Flags),
		Ticks:      len(timeline.Build(r)),
		Duration:   util.FormatDuration(d),
		DurationMs: d.Milliseconds(),
		Progress:   b.ProgressPercentage(),
		Mode:       o.Mode(r, animated).String(),
		Board:      b,
	}, nil
}

// InspectGame fetches a game and summarises it
func (o *Orchestrator) InspectGame(ctx context.Context, providerID, gameID string) (*Summary, error) {
	game, err := o.FetchGame(ctx, providerID, gameID)
	if err != nil {
		return nil, err
	}
	text, err := game.Replay()
	if err != nil {
		return nil, err
	}
	summary, err := o.Inspect(text, true)
	if err != nil {
		return nil, err
	}
	summary.Game = game
	summary.PlayerName = o.playerName(ctx, providerID, game.UUID)
	return summary, nil
}

// playerName resolves uuid when the provider supports it. Lookup failures
// only cost the name.
func (o *Orchestrator) playerName(ctx context.Context, providerID, uuid string) string {
	if uuid == "" {
		return ""
	}
	p, err := o.games.Get(providerID)
	if err != nil {
		return ""
	}
	namer, ok := provider.AsPlayerNamer(p)
	if !ok {
		return ""
	}
	player, err := namer.FetchPlayerName(ctx, uuid)
	if err != nil {
		util.LogWarnf("Failed to resolve player %s: %v", uuid, err)
		return ""
	}
	return player.Name
}
