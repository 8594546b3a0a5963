package timeline

import (
	"github.com/samber/lo"

	"github.com/penwyp/go-mine-replay/internal/core/board"
	"github.com/penwyp/go-mine-replay/internal/core/replay"
)

// Player drains a replay's events into a board one tick at a time.
type Player struct {
	board *board.Board
	opens []replay.OpenEvent
	flags []replay.FlagEvent
	ticks []Tick
	next  int
}

// NewPlayer prepares playback of r onto b. The event slices of r are
// copied, r itself is not modified.
func NewPlayer(b *board.Board, r *replay.Replay) *Player {
	return &Player{
		board: b,
		opens: append([]replay.OpenEvent(nil), r.Opens...),
		flags: append([]replay.FlagEvent(nil), r.Flags...),
		ticks: Build(r),
	}
}

// Ticks returns every tick of the replay.
func (p *Player) Ticks() []Tick {
	return p.ticks
}

// Remaining returns the number of ticks not yet played.
func (p *Player) Remaining() int {
	return len(p.ticks) - p.next
}

// Pending returns the number of events not yet applied.
func (p *Player) Pending() (opens, flags int) {
	return len(p.opens), len(p.flags)
}

// Step applies every event due at the next tick and returns that tick.
// Flags are applied before opens. ok is false once all ticks are played.
func (p *Player) Step() (tick Tick, ok bool) {
	if p.next >= len(p.ticks) {
		return Tick{}, false
	}
	tick = p.ticks[p.next]
	p.next++
	p.apply(tick)
	return tick, true
}

func (p *Player) apply(tick Tick) {
	if tick.Kinds.Has(replay.KindFlag) {
		due, rest := lo.FilterReject(p.flags, func(e replay.FlagEvent, _ int) bool {
			return e.Time == tick.Time
		})
		for _, e := range due {
			p.board.PerformFlagAction(e)
		}
		p.flags = rest
	}
	if tick.Kinds.Has(replay.KindOpen) {
		due, rest := lo.FilterReject(p.opens, func(e replay.OpenEvent, _ int) bool {
			return e.Time == tick.Time
		})
		for _, e := range due {
			p.board.OpenField(e.X, e.Y)
		}
		p.opens = rest
	}
}

// ApplyAll applies every flag event and then every open event of r,
// ignoring timing.
func ApplyAll(b *board.Board, r *replay.Replay) {
	for _, e := range r.Flags {
		b.PerformFlagAction(e)
	}
	for _, e := range r.Opens {
		b.OpenField(e.X, e.Y)
	}
}
