package pipeline

import (
	"context"

	"github.com/penwyp/go-mine-replay/internal/data/store"
	"github.com/penwyp/go-mine-replay/internal/provider"
)

// GameSource resolves provider ids to providers
type GameSource interface {
	Get(id string) (provider.Provider, error)
}

// RenderCache stores rendered images by key
type RenderCache interface {
	LoadRender(ctx context.Context, key string) (*store.Render, error)
	SaveRender(ctx context.Context, key, contentType string, data []byte) error
}
