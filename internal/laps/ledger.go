// Package laps records lap events derived from stopwatch readings.
package laps

import (
	"time"

	"github.com/samber/lo"
)

// Lap is one recorded lap. Values are never modified after Append returns them.
type Lap struct {
	Number     int           `json:"number"`
	Total      time.Duration `json:"total"`       // elapsed time when recorded
	Split      time.Duration `json:"split"`       // time since the previous lap
	RecordedAt time.Time     `json:"recorded_at"` // wall clock, informational
}

// Ledger is an append-only, chronologically ordered list of laps.
type Ledger struct {
	laps []Lap
}

// Append records a lap at the given elapsed total and returns it.
func (l *Ledger) Append(total time.Duration, at time.Time) Lap {
	split := total
	if prev, ok := l.Last(); ok {
		split = total - prev.Total
	}
	lap := Lap{
		Number:     len(l.laps) + 1,
		Total:      total,
		Split:      split,
		RecordedAt: at,
	}
	l.laps = append(l.laps, lap)
	return lap
}

// Clear drops every lap.
func (l *Ledger) Clear() {
	l.laps = nil
}

func (l *Ledger) Len() int { return len(l.laps) }

// Last returns the most recent lap.
func (l *Ledger) Last() (Lap, bool) {
	if len(l.laps) == 0 {
		return Lap{}, false
	}
	return l.laps[len(l.laps)-1], true
}

// All returns a copy of the laps in the order they were recorded.
func (l *Ledger) All() []Lap {
	out := make([]Lap, len(l.laps))
	copy(out, l.laps)
	return out
}

// Newest returns a copy of the laps, most recent first.
func (l *Ledger) Newest() []Lap {
	// lo.Reverse works in place, so reverse the copy.
	return lo.Reverse(l.All())
}

// Fastest returns the lap with the shortest split. It needs at least two laps
// to be meaningful and reports false otherwise.
func (l *Ledger) Fastest() (Lap, bool) {
	if len(l.laps) < 2 {
		return Lap{}, false
	}
	return lo.MinBy(l.laps, func(a, b Lap) bool { return a.Split < b.Split }), true
}

// Slowest is the counterpart of Fastest.
func (l *Ledger) Slowest() (Lap, bool) {
	if len(l.laps) < 2 {
		return Lap{}, false
	}
	return lo.MaxBy(l.laps, func(a, b Lap) bool { return a.Split > b.Split }), true
}
