// Package controller composes the stopwatch, the lap ledger and the insight
// service behind the commands a front end issues.
//
// A Controller is driven from one event loop. Its sampler goroutine never
// touches state: it only signals on Ticks, and the loop answers each signal
// with Tick.
package controller

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/chronogen/internal/insight"
	"github.com/fakeyudi/chronogen/internal/laps"
	"github.com/fakeyudi/chronogen/internal/metrics"
	"github.com/fakeyudi/chronogen/internal/stopwatch"
)

var (
	ErrClosed             = errors.New("controller closed")
	ErrInsightUnavailable = errors.New("insight needs a stopped stopwatch showing at least one second")
	ErrInsightPending     = errors.New("insight request already in progress")
)

// Options configures a Controller. Zero values select real time, the default
// sampling interval and a discarding logger.
type Options struct {
	Clock    stopwatch.Clock
	Interval time.Duration
	Insights insight.Generator
	Log      logrus.FieldLogger
}

// Controller owns one stopwatch session.
type Controller struct {
	log      logrus.FieldLogger
	clock    stopwatch.Clock
	interval time.Duration
	insights insight.Generator

	sw      *stopwatch.Stopwatch
	ledger  laps.Ledger
	sampler *stopwatch.Sampler
	ticks   chan time.Time
	closed  bool

	startedAt time.Time
	stoppedAt time.Time

	// generation changes on Start and Reset so replies to abandoned insight
	// requests can be recognised and dropped.
	generation uint64
	pending    bool
	fact       *insight.Result
}

// New creates an idle controller.
func New(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = stopwatch.RealClock{}
	}
	if opts.Interval <= 0 {
		opts.Interval = stopwatch.DefaultInterval
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	return &Controller{
		log:      opts.Log,
		clock:    opts.Clock,
		interval: opts.Interval,
		insights: opts.Insights,
		sw:       stopwatch.New(opts.Clock),
		ticks:    make(chan time.Time, 1),
	}
}

// Ticks delivers sampling signals while running. It is closed by Close.
func (c *Controller) Ticks() <-chan time.Time { return c.ticks }

// Start begins or resumes timing and acquires the sampler.
func (c *Controller) Start() error {
	if c.closed {
		return ErrClosed
	}
	if err := c.sw.Start(); err != nil {
		return err
	}
	if c.startedAt.IsZero() {
		c.startedAt = c.clock.Now()
	}
	c.stoppedAt = time.Time{}
	c.abandonInsight()
	c.releaseSampler()
	c.sampler = stopwatch.StartSampler(c.interval, c.signal)
	metrics.Running.Set(1)
	c.log.WithField("elapsed", c.sw.Elapsed()).Debug("stopwatch started")
	return nil
}

// Stop halts timing and releases the sampler.
func (c *Controller) Stop() error {
	if err := c.sw.Stop(); err != nil {
		return err
	}
	c.releaseSampler()
	c.stoppedAt = c.clock.Now()
	metrics.Running.Set(0)
	c.log.WithField("elapsed", c.sw.Elapsed()).Debug("stopwatch stopped")
	return nil
}

// Reset returns to idle from any state, clearing laps and insight.
func (c *Controller) Reset() {
	c.releaseSampler()
	c.sw.Reset()
	c.ledger.Clear()
	c.abandonInsight()
	c.startedAt = time.Time{}
	c.stoppedAt = time.Time{}
	metrics.Running.Set(0)
	c.log.Debug("stopwatch reset")
}

// Lap records a lap at the current elapsed time. Only allowed while running.
func (c *Controller) Lap() (laps.Lap, error) {
	if !c.sw.Running() {
		return laps.Lap{}, &stopwatch.TransitionError{Op: "record a lap", From: c.sw.State()}
	}
	lap := c.ledger.Append(c.sw.Sample(), c.clock.Now())
	metrics.LapsRecorded.Inc()
	c.log.WithFields(logrus.Fields{"lap": lap.Number, "split": lap.Split}).Debug("lap recorded")
	return lap, nil
}

// Tick applies one sampling signal and returns the elapsed time.
func (c *Controller) Tick() time.Duration {
	if c.sw.Running() {
		metrics.SamplerTicks.Inc()
	}
	return c.sw.Sample()
}

// Close releases the sampler and closes Ticks. It is safe to call twice.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.releaseSampler()
	c.closed = true
	close(c.ticks)
}

func (c *Controller) Elapsed() time.Duration { return c.sw.Elapsed() }

func (c *Controller) State() stopwatch.State { return c.sw.State() }

// signal runs on the sampler goroutine; it coalesces if the loop is behind.
func (c *Controller) signal(t time.Time) {
	select {
	case c.ticks <- t:
	default:
	}
}

func (c *Controller) releaseSampler() {
	if c.sampler != nil {
		c.sampler.Cancel()
		c.sampler = nil
	}
}

// Request is an insight call handed out by BeginInsight. Run may execute off
// the event loop; its Reply must be handed back through CompleteInsight.
type Request struct {
	Seconds    int
	generation uint64
	generator  insight.Generator
}

// Reply carries a Request's result back to the event loop.
type Reply struct {
	Result     insight.Result
	generation uint64
}

// Run performs the request. It never fails: errors arrive as fallback text.
func (r Request) Run(ctx context.Context) Reply {
	return Reply{Result: r.generator.Generate(ctx, r.Seconds), generation: r.generation}
}

// BeginInsight reserves the single in-flight insight slot.
func (c *Controller) BeginInsight() (Request, error) {
	if c.insights == nil || c.sw.Running() {
		return Request{}, ErrInsightUnavailable
	}
	seconds := int(c.sw.Elapsed() / time.Second)
	if seconds < 1 {
		return Request{}, ErrInsightUnavailable
	}
	if c.pending {
		return Request{}, ErrInsightPending
	}
	c.pending = true
	return Request{Seconds: seconds, generation: c.generation, generator: c.insights}, nil
}

// CompleteInsight applies a reply. Replies to requests abandoned by Start or
// Reset are dropped and false is returned.
func (c *Controller) CompleteInsight(r Reply) bool {
	if r.generation != c.generation {
		c.log.WithField("seconds", r.Result.Seconds).Debug("dropping stale insight")
		return false
	}
	c.pending = false
	res := r.Result
	c.fact = &res
	return true
}

// DismissInsight hides the current insight text.
func (c *Controller) DismissInsight() {
	c.fact = nil
}

// Insight returns the insight on display, if any.
func (c *Controller) Insight() (insight.Result, bool) {
	if c.fact == nil {
		return insight.Result{}, false
	}
	return *c.fact, true
}

func (c *Controller) InsightPending() bool { return c.pending }

func (c *Controller) abandonInsight() {
	c.generation++
	c.pending = false
	c.fact = nil
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	State          stopwatch.State
	Elapsed        time.Duration
	Laps           []laps.Lap // chronological
	FastestLap     int        // lap number, 0 when undefined
	SlowestLap     int
	Insight        *insight.Result
	InsightPending bool
	StartedAt      time.Time
	StoppedAt      time.Time
}

// Snapshot copies the current session state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:          c.sw.State(),
		Elapsed:        c.sw.Elapsed(),
		Laps:           c.ledger.All(),
		InsightPending: c.pending,
		StartedAt:      c.startedAt,
		StoppedAt:      c.stoppedAt,
	}
	if f, ok := c.ledger.Fastest(); ok {
		s.FastestLap = f.Number
	}
	if sl, ok := c.ledger.Slowest(); ok {
		s.SlowestLap = sl.Number
	}
	if c.fact != nil {
		f := *c.fact
		s.Insight = &f
	}
	return s
}

// InsightReady reports whether an insight can be requested right now.
func (c *Controller) InsightReady() bool {
	return c.insights != nil && !c.sw.Running() && !c.pending && c.sw.Elapsed() >= time.Second
}
