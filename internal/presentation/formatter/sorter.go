package formatter

import (
	"fmt"
	"sort"
	"strings"
)

// SortField represents the field to sort rows by
type SortField int

const (
	SortBySource SortField = iota
	SortByDuration
	SortByProgress
	SortBySize
)

// SortOrder represents the sort order
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// RowSorter handles sorting of inspected rows
type RowSorter struct {
	field SortField
	order SortOrder
}

// NewRowSorter creates a sorter; a leading "-" on key sorts descending
func NewRowSorter(key string) (*RowSorter, error) {
	s := &RowSorter{field: SortBySource, order: SortAscending}
	if strings.HasPrefix(key, "-") {
		s.order = SortDescending
		key = key[1:]
	}

	switch key {
	case "", "source":
		s.field = SortBySource
	case "duration":
		s.field = SortByDuration
	case "progress":
		s.field = SortByProgress
	case "size":
		s.field = SortBySize
	default:
		return nil, fmt.Errorf("unknown sort field %q (want source, duration, progress or size)", key)
	}
	return s, nil
}

// Sort orders rows in place. Ties keep their input order.
func (s *RowSorter) Sort(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if s.order == SortDescending {
			a, b = b, a
		}

		switch s.field {
		case SortByDuration:
			return a.DurationMs < b.DurationMs
		case SortByProgress:
			return a.Progress < b.Progress
		case SortBySize:
			return a.Width*a.Height < b.Width*b.Height
		default:
			return a.Source < b.Source
		}
	})
}
