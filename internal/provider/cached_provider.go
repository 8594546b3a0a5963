package provider

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-mine-replay/internal/data/store"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// GameCache stores raw game payloads. *store.Store implements it.
type GameCache interface {
	LoadGame(ctx context.Context, provider, gameID string) ([]byte, error)
	SaveGame(ctx context.Context, provider, gameID string, payload []byte) error
}

// CachedProvider wraps a provider so each finished game is fetched once.
// Cache failures are logged and never fail a fetch.
type CachedProvider struct {
	provider Provider
	cache    GameCache
}

// NewCachedProvider wraps p with cache.
func NewCachedProvider(p Provider, cache GameCache) *CachedProvider {
	return &CachedProvider{provider: p, cache: cache}
}

func (c *CachedProvider) ID() string   { return c.provider.ID() }
func (c *CachedProvider) Name() string { return c.provider.Name() }

// Unwrap returns the wrapped provider.
func (c *CachedProvider) Unwrap() Provider {
	return c.provider
}

// FetchGame returns the cached record or fetches and stores it. Records
// without replay data are not cached.
func (c *CachedProvider) FetchGame(ctx context.Context, gameID string) (*GameData, error) {
	payload, err := c.cache.LoadGame(ctx, c.ID(), gameID)
	switch {
	case err == nil:
		var data GameData
		if err := sonic.Unmarshal(payload, &data); err == nil {
			util.LogDebugf("Using cached %s game %s", c.ID(), gameID)
			return &data, nil
		}
		util.LogWarnf("Discarding unreadable cached %s game %s", c.ID(), gameID)
	case !errors.Is(err, store.ErrNotFound):
		util.LogWarnf("Game cache lookup failed: %v", err)
	}

	data, err := c.provider.FetchGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if _, err := data.Replay(); err == nil {
		if payload, err := sonic.Marshal(data); err == nil {
			if err := c.cache.SaveGame(ctx, c.ID(), gameID, payload); err != nil {
				util.LogWarnf("Failed to cache %s game %s: %v", c.ID(), gameID, err)
			}
		}
	}
	return data, nil
}
