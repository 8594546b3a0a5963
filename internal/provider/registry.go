package provider

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/penwyp/go-mine-replay/internal/util"
)

// Registry selects providers by id.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry holding providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same id.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get returns the provider for id or ErrUnknownProvider.
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := lo.Keys(r.providers)
	sort.Strings(ids)
	return ids
}

// Config configures CreateRegistry.
type Config struct {
	GreevURL    string
	McPlayHDURL string
	Timeout     time.Duration
	Keys        KeySource
	// Cache, when set, wraps every provider in a CachedProvider.
	Cache GameCache
}

// CreateRegistry builds the registry of built-in providers.
func CreateRegistry(cfg Config) *Registry {
	providers := []Provider{
		NewGreevProvider(cfg.GreevURL, cfg.Timeout),
		NewMcPlayHDProvider(cfg.McPlayHDURL, cfg.Timeout, cfg.Keys),
	}
	if cfg.Cache != nil {
		providers = lo.Map(providers, func(p Provider, _ int) Provider {
			return NewCachedProvider(p, cfg.Cache)
		})
		util.LogDebug("Provider responses are cached")
	}
	return NewRegistry(providers...)
}
