package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"github.com/fakeyudi/chronogen/internal/insight"
	mock_insight "github.com/fakeyudi/chronogen/internal/insight/mock"
	"github.com/fakeyudi/chronogen/internal/stopwatch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newController(t *testing.T, gen insight.Generator) (*Controller, *stopwatch.ManualClock) {
	t.Helper()
	clock := stopwatch.NewManualClock(epoch)
	c := New(Options{Clock: clock, Interval: time.Millisecond, Insights: gen})
	t.Cleanup(c.Close)
	return c, clock
}

func TestStartStopLifecycle(t *testing.T) {
	r := require.New(t)
	c, clock := newController(t, nil)

	r.Equal(stopwatch.StateIdle, c.State())
	r.NoError(c.Start())
	r.Equal(stopwatch.StateRunning, c.State())
	r.Equal(epoch, c.Snapshot().StartedAt)

	clock.Advance(1500 * time.Millisecond)
	r.Equal(1500*time.Millisecond, c.Tick())

	clock.Advance(250 * time.Millisecond)
	r.NoError(c.Stop())
	r.Equal(1750*time.Millisecond, c.Elapsed())
	r.Equal(stopwatch.StateStopped, c.State())
	r.Equal(epoch.Add(1750*time.Millisecond), c.Snapshot().StoppedAt)

	// Ticks after stop do not move the reading.
	clock.Advance(time.Hour)
	r.Equal(1750*time.Millisecond, c.Tick())
}

func TestInvalidTransitionsAreRejected(t *testing.T) {
	r := require.New(t)
	c, _ := newController(t, nil)

	err := c.Stop()
	r.ErrorIs(err, stopwatch.ErrInvalidTransition)

	_, err = c.Lap()
	r.ErrorIs(err, stopwatch.ErrInvalidTransition)
	var te *stopwatch.TransitionError
	r.True(errors.As(err, &te))
	r.Equal(stopwatch.StateIdle, te.From)

	r.NoError(c.Start())
	r.ErrorIs(c.Start(), stopwatch.ErrInvalidTransition)
	r.Equal(stopwatch.StateRunning, c.State())
}

func TestLapSamplesFirst(t *testing.T) {
	r := require.New(t)
	c, clock := newController(t, nil)

	r.NoError(c.Start())
	clock.Advance(2 * time.Second)
	lap, err := c.Lap()
	r.NoError(err)
	r.Equal(1, lap.Number)
	r.Equal(2*time.Second, lap.Total)
	r.Equal(2*time.Second, lap.Split)

	clock.Advance(500 * time.Millisecond)
	lap, err = c.Lap()
	r.NoError(err)
	r.Equal(2, lap.Number)
	r.Equal(2500*time.Millisecond, lap.Total)
	r.Equal(500*time.Millisecond, lap.Split)

	snap := c.Snapshot()
	r.Len(snap.Laps, 2)
	r.Equal(2, snap.FastestLap)
	r.Equal(1, snap.SlowestLap)
}

func TestResetClearsEverything(t *testing.T) {
	r := require.New(t)
	c, clock := newController(t, nil)

	r.NoError(c.Start())
	clock.Advance(3 * time.Second)
	_, err := c.Lap()
	r.NoError(err)

	c.Reset()
	snap := c.Snapshot()
	r.Equal(stopwatch.StateIdle, snap.State)
	r.Zero(snap.Elapsed)
	r.Empty(snap.Laps)
	r.True(snap.StartedAt.IsZero())

	// The sampler was released: starting again works.
	r.NoError(c.Start())
}

func TestSamplerSignalsTicksWhileRunning(t *testing.T) {
	c, _ := newController(t, nil)
	require.NoError(t, c.Start())

	select {
	case <-c.Ticks():
	case <-time.After(time.Second):
		t.Fatal("no tick delivered while running")
	}

	require.NoError(t, c.Stop())
	// Drain the coalesced slot; nothing new may arrive after Stop.
	select {
	case <-c.Ticks():
	default:
	}
	select {
	case <-c.Ticks():
		t.Fatal("tick delivered after stop")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c, _ := newController(t, nil)
	require.NoError(t, c.Start())

	c.Close()
	c.Close()

	_, ok := <-c.Ticks()
	for ok {
		_, ok = <-c.Ticks()
	}
	require.ErrorIs(t, c.Start(), ErrClosed)
}

func TestBeginInsightPreconditions(t *testing.T) {
	r := require.New(t)
	ctrl := gomock.NewController(t)
	gen := mock_insight.NewMockGenerator(ctrl)
	c, clock := newController(t, gen)

	_, err := c.BeginInsight()
	r.ErrorIs(err, ErrInsightUnavailable, "idle")

	r.NoError(c.Start())
	clock.Advance(999 * time.Millisecond)
	_, err = c.BeginInsight()
	r.ErrorIs(err, ErrInsightUnavailable, "running")

	r.NoError(c.Stop())
	_, err = c.BeginInsight()
	r.ErrorIs(err, ErrInsightUnavailable, "under one second")
	r.False(c.InsightReady())

	noGen, clock2 := newController(t, nil)
	r.NoError(noGen.Start())
	clock2.Advance(5 * time.Second)
	r.NoError(noGen.Stop())
	_, err = noGen.BeginInsight()
	r.ErrorIs(err, ErrInsightUnavailable, "no generator")
}

// Feature: chronogen, Property 6: Insight after a stopped run is never empty
func TestInsightAfterStopIsNeverEmpty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctrl := gomock.NewController(rt)
		defer ctrl.Finish()
		gen := mock_insight.NewMockGenerator(ctrl)

		clock := stopwatch.NewManualClock(epoch)
		c := New(Options{Clock: clock, Interval: time.Hour, Insights: gen})
		defer c.Close()

		ms := rapid.Int64Range(1000, 10_000_000).Draw(rt, "elapsed_ms")
		fails := rapid.Bool().Draw(rt, "remote_fails")
		seconds := int(ms / 1000)

		res := insight.Result{Seconds: seconds, Text: "A hummingbird beats its wings a lot."}
		if fails {
			res = insight.Result{Seconds: seconds, Text: insight.FailureText, Fallback: true, Err: errors.New("boom")}
		}
		gen.EXPECT().Generate(gomock.Any(), seconds).Return(res)

		if err := c.Start(); err != nil {
			rt.Fatalf("Start: %v", err)
		}
		clock.Advance(time.Duration(ms) * time.Millisecond)
		if err := c.Stop(); err != nil {
			rt.Fatalf("Stop: %v", err)
		}

		req, err := c.BeginInsight()
		if err != nil {
			rt.Fatalf("BeginInsight: %v", err)
		}
		if !c.InsightPending() {
			rt.Fatal("insight not pending after BeginInsight")
		}
		if !c.CompleteInsight(req.Run(context.Background())) {
			rt.Fatal("fresh reply was dropped")
		}

		got, ok := c.Insight()
		if !ok || got.Text == "" {
			rt.Fatalf("insight text empty: %+v", got)
		}
		if got.Fallback != fails {
			rt.Fatalf("fallback: got %v, want %v", got.Fallback, fails)
		}
	})
}

func TestInsightSingleFlight(t *testing.T) {
	r := require.New(t)
	ctrl := gomock.NewController(t)
	gen := mock_insight.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), 2).Return(insight.Result{Seconds: 2, Text: "fact"}).Times(1)

	c, clock := newController(t, gen)
	r.NoError(c.Start())
	clock.Advance(2 * time.Second)
	r.NoError(c.Stop())

	req, err := c.BeginInsight()
	r.NoError(err)
	_, err = c.BeginInsight()
	r.ErrorIs(err, ErrInsightPending)

	r.True(c.CompleteInsight(req.Run(context.Background())))
	r.False(c.InsightPending())

	c.DismissInsight()
	_, ok := c.Insight()
	r.False(ok)
}

func TestStaleInsightIsDropped(t *testing.T) {
	r := require.New(t)
	ctrl := gomock.NewController(t)
	gen := mock_insight.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), 4).Return(insight.Result{Seconds: 4, Text: "late"})

	c, clock := newController(t, gen)
	r.NoError(c.Start())
	clock.Advance(4 * time.Second)
	r.NoError(c.Stop())

	req, err := c.BeginInsight()
	r.NoError(err)
	c.Reset()

	r.False(c.CompleteInsight(req.Run(context.Background())))
	_, ok := c.Insight()
	r.False(ok)
	r.False(c.InsightPending())
}

func TestStartClearsInsight(t *testing.T) {
	r := require.New(t)
	ctrl := gomock.NewController(t)
	gen := mock_insight.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), 1).Return(insight.Result{Seconds: 1, Text: "quick"})

	c, clock := newController(t, gen)
	r.NoError(c.Start())
	clock.Advance(1200 * time.Millisecond)
	r.NoError(c.Stop())

	req, err := c.BeginInsight()
	r.NoError(err)
	r.True(c.CompleteInsight(req.Run(context.Background())))
	r.NotNil(c.Snapshot().Insight)

	r.NoError(c.Start())
	r.Nil(c.Snapshot().Insight)
}
