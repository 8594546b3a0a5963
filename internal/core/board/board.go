// Package board simulates a minesweeper board as a replay is played back.
package board

import (
	"fmt"

	"github.com/penwyp/go-mine-replay/internal/core/replay"
)

// Board holds the grid, its dirty flags and progress counters.
// Cells are indexed [y][x].
type Board struct {
	meta   replay.Metadata
	cells  [][]Cell
	dirty  [][]bool
	opened int
	mines  int
	total  int
}

// New builds a board with the given mines. Every cell starts closed and
// dirty so the first rendered frame draws the whole grid.
func New(meta replay.Metadata, mines []replay.Coordinate) (*Board, error) {
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("invalid board size %dx%d", meta.Width, meta.Height)
	}

	b := &Board{
		meta:  meta,
		cells: make([][]Cell, meta.Height),
		dirty: make([][]bool, meta.Height),
		total: meta.Cells(),
	}
	for y := range b.cells {
		b.cells[y] = make([]Cell, meta.Width)
		b.dirty[y] = make([]bool, meta.Width)
		for x := range b.dirty[y] {
			b.dirty[y][x] = true
		}
	}

	for _, m := range mines {
		if !meta.Contains(m.X, m.Y) {
			return nil, fmt.Errorf("mine (%d, %d) is outside the %dx%d board", m.X, m.Y, meta.Width, meta.Height)
		}
		cell := &b.cells[m.Y][m.X]
		if cell.Mine {
			continue
		}
		cell.Mine = true
		b.mines++
	}

	for y := range b.cells {
		for x := range b.cells[y] {
			if !b.cells[y][x].Mine {
				continue
			}
			b.eachNeighbour(x, y, func(nx, ny int) {
				if n := &b.cells[ny][nx]; !n.Mine {
					n.Value++
				}
			})
		}
	}

	return b, nil
}

// Metadata returns the metadata the board was built from.
func (b *Board) Metadata() replay.Metadata {
	return b.meta
}

// Width returns the number of columns.
func (b *Board) Width() int {
	return b.meta.Width
}

// Height returns the number of rows.
func (b *Board) Height() int {
	return b.meta.Height
}

// Cell returns a copy of the cell at (x, y).
func (b *Board) Cell(x, y int) Cell {
	return b.cells[y][x]
}

// IsDirty reports whether (x, y) changed since the last ClearDirty.
func (b *Board) IsDirty(x, y int) bool {
	return b.dirty[y][x]
}

// ClearDirty marks (x, y) as drawn.
func (b *Board) ClearDirty(x, y int) {
	b.dirty[y][x] = false
}

// OpenedCount returns how many cells have been opened, mines included.
func (b *Board) OpenedCount() int {
	return b.opened
}

// MineCount returns the number of distinct mines.
func (b *Board) MineCount() int {
	return b.mines
}

// TotalCount returns width × height.
func (b *Board) TotalCount() int {
	return b.total
}

// OpenField reveals (x, y). Cells that are not closed are left untouched.
// Opening a zero-valued cell reveals its neighbours until the region is
// bordered by numbered cells; mines never propagate.
func (b *Board) OpenField(x, y int) {
	if !b.meta.Contains(x, y) {
		return
	}

	stack := []replay.Coordinate{{X: x, Y: y}}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := &b.cells[c.Y][c.X]
		if cell.State != Closed {
			continue
		}
		cell.State = Open
		b.dirty[c.Y][c.X] = true
		b.opened++

		if cell.Mine || cell.Value != 0 {
			continue
		}
		b.eachNeighbour(c.X, c.Y, func(nx, ny int) {
			if b.cells[ny][nx].State == Closed {
				stack = append(stack, replay.Coordinate{X: nx, Y: ny})
			}
		})
	}
}

// PerformFlagAction applies a flag event. Toggle always moves the cell to
// UnsureFlagged.
func (b *Board) PerformFlagAction(event replay.FlagEvent) {
	if !b.meta.Contains(event.X, event.Y) {
		return
	}

	cell := &b.cells[event.Y][event.X]
	switch event.Action {
	case replay.ActionPlace:
		cell.State = Flagged
	case replay.ActionRemove:
		cell.State = Closed
	case replay.ActionToggle:
		cell.State = UnsureFlagged
	}
	b.dirty[event.Y][event.X] = true
}

// ProgressPercentage returns the share of safe cells opened, floored to a
// whole percent and capped at 100. A board without safe cells is complete.
func (b *Board) ProgressPercentage() int {
	safe := b.total - b.mines
	if safe <= 0 {
		return 100
	}
	pct := b.opened * 100 / safe
	if pct > 100 {
		return 100
	}
	return pct
}

func (b *Board) eachNeighbour(x, y int, fn func(nx, ny int)) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if b.meta.Contains(nx, ny) {
				fn(nx, ny)
			}
		}
	}
}
