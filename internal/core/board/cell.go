package board

// CellState is the visible state of a cell.
type CellState int

const (
	Closed CellState = iota
	Open
	Flagged
	UnsureFlagged
)

func (s CellState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Flagged:
		return "flagged"
	case UnsureFlagged:
		return "unsure"
	default:
		return "unknown"
	}
}

// Cell is one board square.
type Cell struct {
	Value uint8 // Adjacent mine count, meaningless for mines
	State CellState
	Mine  bool
}
