package layout

import (
	"sort"
	"time"
)

// Span is anything with a time interval that can be laid out in a day column.
type Span interface {
	Bounds() (start time.Time, end time.Time)
}

// Placement is an event annotated with its horizontal slot within a day.
type Placement[E Span] struct {
	Event E
	// Column is the zero-based slot assigned to the event.
	Column int
	// ColumnCount is the divisor used for width and left offset.
	ColumnCount int
}

// Strategy selects how ColumnCount is derived once columns are assigned.
type Strategy string

const (
	// PairwiseMax takes, per event, the highest column+1 among the events it directly
	// overlaps (and itself). Two events of the same overlap chain can end up with
	// different counts.
	PairwiseMax Strategy = "pairwise"
	// GroupMax gives every event of a connected overlap group the group's highest column+1.
	GroupMax Strategy = "group"
)

// ParseStrategy maps a config value to a Strategy, falling back to PairwiseMax.
func ParseStrategy(s string) Strategy {
	if Strategy(s) == GroupMax {
		return GroupMax
	}
	return PairwiseMax
}

// Day assigns columns to the events of a single calendar day using PairwiseMax.
// The caller is responsible for restricting events to one day.
func Day[E Span](events []E) []Placement[E] {
	return DayWith(events, PairwiseMax)
}

// DayWith is Day with an explicit column count strategy.
//
// Events are sorted by start time (stable, so equal starts keep their input order) and
// each one goes into the first column where it overlaps nothing already placed. The cost
// is O(n²) in the number of events, fine for the handful of events a day usually holds.
func DayWith[E Span](events []E, strategy Strategy) []Placement[E] {
	placements := make([]Placement[E], len(events))
	if len(events) == 0 {
		return placements
	}

	for i, e := range events {
		placements[i] = Placement[E]{Event: e}
	}
	sort.SliceStable(placements, func(i, j int) bool {
		si, _ := placements[i].Event.Bounds()
		sj, _ := placements[j].Event.Bounds()
		return si.Before(sj)
	})

	// columns hold indexes into placements
	var columns [][]int
	for i := range placements {
		column := -1
		for c, placed := range columns {
			if !overlapsAny(placements, placed, i) {
				column = c
				break
			}
		}
		if column == -1 {
			column = len(columns)
			columns = append(columns, nil)
		}
		columns[column] = append(columns[column], i)
		placements[i].Column = column
	}

	switch strategy {
	case GroupMax:
		countByGroup(placements)
	default:
		countPairwise(placements)
	}
	return placements
}

// Overlaps reports strict interval intersection; touching endpoints do not overlap.
func Overlaps(a, b Span) bool {
	aStart, aEnd := a.Bounds()
	bStart, bEnd := b.Bounds()
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func overlapsAny[E Span](placements []Placement[E], placed []int, candidate int) bool {
	for _, p := range placed {
		if Overlaps(placements[candidate].Event, placements[p].Event) {
			return true
		}
	}
	return false
}

func countPairwise[E Span](placements []Placement[E]) {
	for i := range placements {
		count := placements[i].Column + 1
		for j := range placements {
			if i != j && Overlaps(placements[i].Event, placements[j].Event) {
				count = max(count, placements[j].Column+1)
			}
		}
		placements[i].ColumnCount = count
	}
}

func countByGroup[E Span](placements []Placement[E]) {
	group := make([]int, len(placements))
	for i := range group {
		group[i] = -1
	}

	groups := 0
	for i := range placements {
		if group[i] != -1 {
			continue
		}
		group[i] = groups
		stack := []int{i}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for j := range placements {
				if group[j] == -1 && Overlaps(placements[cur].Event, placements[j].Event) {
					group[j] = groups
					stack = append(stack, j)
				}
			}
		}
		groups++
	}

	counts := make([]int, groups)
	for i, p := range placements {
		counts[group[i]] = max(counts[group[i]], p.Column+1)
	}
	for i := range placements {
		placements[i].ColumnCount = counts[group[i]]
	}
}
