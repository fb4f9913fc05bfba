// Package stopwatch implements the elapsed-time state machine.
//
// Elapsed time is always derived from a reference instant (now - ref) rather
// than accumulated tick by tick, so callback jitter never compounds.
package stopwatch

import "time"

// State is the externally visible phase of a Stopwatch.
type State int

const (
	StateIdle State = iota
	StateStopped
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	}
	return "unknown"
}

// Stopwatch tracks elapsed running time. It is not safe for concurrent use;
// callers drive it from a single event loop.
type Stopwatch struct {
	clock   Clock
	elapsed time.Duration
	running bool
	ref     time.Time // zero while stopped
}

// New returns an idle Stopwatch reading time from clock.
// A nil clock means RealClock.
func New(clock Clock) *Stopwatch {
	if clock == nil {
		clock = RealClock{}
	}
	return &Stopwatch{clock: clock}
}

// Start begins or resumes timing. Previously accumulated time is preserved by
// placing the reference instant elapsed before now.
func (s *Stopwatch) Start() error {
	if s.running {
		return &TransitionError{Op: "start", From: s.State()}
	}
	s.ref = s.clock.Now().Add(-s.elapsed)
	s.running = true
	return nil
}

// Stop freezes elapsed time at a final sample.
func (s *Stopwatch) Stop() error {
	if !s.running {
		return &TransitionError{Op: "stop", From: s.State()}
	}
	s.Sample()
	s.running = false
	s.ref = time.Time{}
	return nil
}

// Reset returns to Idle from any state.
func (s *Stopwatch) Reset() {
	s.running = false
	s.elapsed = 0
	s.ref = time.Time{}
}

// Sample recomputes elapsed time while running and returns it.
// When stopped it returns the frozen value unchanged.
func (s *Stopwatch) Sample() time.Duration {
	if s.running {
		if d := s.clock.Now().Sub(s.ref); d > s.elapsed {
			s.elapsed = d
		}
	}
	return s.elapsed
}

// Elapsed returns the last sampled elapsed time without sampling.
func (s *Stopwatch) Elapsed() time.Duration { return s.elapsed }

func (s *Stopwatch) Running() bool { return s.running }

func (s *Stopwatch) State() State {
	switch {
	case s.running:
		return StateRunning
	case s.elapsed > 0:
		return StateStopped
	default:
		return StateIdle
	}
}
