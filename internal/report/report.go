// Package report exports a finished stopwatch run as JSON or Markdown and
// reads exported runs back for viewing.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/chronogen/internal/controller"
	"github.com/fakeyudi/chronogen/internal/laps"
	"github.com/fakeyudi/chronogen/internal/stopwatch"
)

// Run is the complete, renderable record of one stopwatch run.
type Run struct {
	ID         string        `json:"id"`
	Author     string        `json:"author,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	StoppedAt  time.Time     `json:"stopped_at"`
	Total      time.Duration `json:"total"`
	Display    string        `json:"display"` // Total as MM:SS.cc
	Laps       []laps.Lap    `json:"laps"`
	FastestLap int           `json:"fastest_lap,omitempty"`
	SlowestLap int           `json:"slowest_lap,omitempty"`
	Insight    *Insight      `json:"insight,omitempty"`
}

// Insight is the fact shown for the run, if one was requested.
type Insight struct {
	Seconds  int    `json:"seconds"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

// FromSnapshot builds a Run from a controller snapshot. now stands in for
// the stop time when the run is still going.
func FromSnapshot(s controller.Snapshot, author string, now time.Time) *Run {
	r := &Run{
		ID:         uuid.New().String(),
		Author:     author,
		StartedAt:  s.StartedAt,
		StoppedAt:  s.StoppedAt,
		Total:      s.Elapsed,
		Display:    stopwatch.Format(s.Elapsed),
		Laps:       s.Laps,
		FastestLap: s.FastestLap,
		SlowestLap: s.SlowestLap,
	}
	if r.Laps == nil {
		r.Laps = []laps.Lap{}
	}
	if r.StoppedAt.IsZero() {
		r.StoppedAt = now
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = r.StoppedAt
	}
	if s.Insight != nil {
		r.Insight = &Insight{
			Seconds:  s.Insight.Seconds,
			Text:     s.Insight.Text,
			Fallback: s.Insight.Fallback,
		}
	}
	return r
}
