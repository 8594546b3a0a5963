package timeline

import (
	"sort"

	"github.com/samber/lo"

	"github.com/penwyp/go-mine-replay/internal/core/replay"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// Builder merges the open and flag streams of a replay into ticks.
type Builder struct {
	kinds map[int64]KindSet
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{kinds: make(map[int64]KindSet)}
}

// Add records that an event of kind k happens at cumulative time t.
func (b *Builder) Add(t int64, k replay.Kind) {
	b.kinds[t] = b.kinds[t].With(k)
}

// AddReplay records every event of r.
func (b *Builder) AddReplay(r *replay.Replay) {
	for _, e := range r.Opens {
		b.Add(e.Time, replay.KindOpen)
	}
	for _, e := range r.Flags {
		b.Add(e.Time, replay.KindFlag)
	}
}

// Ticks returns the recorded ticks in ascending time order.
func (b *Builder) Ticks() []Tick {
	ticks := lo.MapToSlice(b.kinds, func(t int64, kinds KindSet) Tick {
		return Tick{Time: t, Kinds: kinds}
	})
	sort.Slice(ticks, func(i, j int) bool {
		return ticks[i].Time < ticks[j].Time
	})
	return ticks
}

// Build returns the ticks of r.
func Build(r *replay.Replay) []Tick {
	b := NewBuilder()
	b.AddReplay(r)
	ticks := b.Ticks()
	util.LogDebugf("Timeline built: %d opens, %d flags, %d ticks", len(r.Opens), len(r.Flags), len(ticks))
	return ticks
}
