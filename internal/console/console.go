// Package console drives a controller from line commands, for use when the
// input is not a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/chronogen/internal/controller"
	"github.com/fakeyudi/chronogen/internal/report"
	"github.com/fakeyudi/chronogen/internal/stopwatch"
)

const helpText = `commands:
  start     start or resume timing
  stop      stop timing
  lap       record a lap (while running)
  reset     clear time, laps and insight
  status    show state and elapsed time
  laps      list laps, newest first
  fact      fetch a fact about the stopped duration
  dismiss   hide the current fact
  help      show this help
  quit      leave`

// Console reads commands and reports results as plain text lines.
type Console struct {
	ctrl *controller.Controller
	out  io.Writer
	log  logrus.FieldLogger

	replies chan controller.Reply
}

// New creates a console over ctrl writing to out.
func New(ctrl *controller.Controller, out io.Writer, log logrus.FieldLogger) *Console {
	return &Console{
		ctrl:    ctrl,
		out:     out,
		log:     log,
		replies: make(chan controller.Reply, 1),
	}
}

// Run processes lines from in until quit, EOF or ctx is done. At EOF it
// waits for an in-flight insight so its text is not lost.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			c.log.WithError(err).Warn("reading commands")
		}
	}()

	ticks := c.ctrl.Ticks()
	for {
		if lines == nil && !c.ctrl.InsightPending() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if quit := c.exec(ctx, line); quit {
				return nil
			}
		case _, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			c.ctrl.Tick()
		case r := <-c.replies:
			if c.ctrl.CompleteInsight(r) {
				c.printf("fact: %s", r.Result.Text)
			}
		}
	}
}

// exec runs one command line and reports whether the console should exit.
func (c *Console) exec(ctx context.Context, line string) bool {
	cmd := strings.ToLower(strings.TrimSpace(line))
	switch cmd {
	case "":
	case "start":
		if c.report(c.ctrl.Start()) {
			c.printf("started at %s", stopwatch.Format(c.ctrl.Elapsed()))
		}
	case "stop":
		if c.report(c.ctrl.Stop()) {
			c.printf("stopped at %s", stopwatch.Format(c.ctrl.Elapsed()))
		}
	case "lap":
		lap, err := c.ctrl.Lap()
		if c.report(err) {
			c.printf("lap %d  %s  (total %s)", lap.Number, stopwatch.Format(lap.Split), stopwatch.Format(lap.Total))
		}
	case "reset":
		c.ctrl.Reset()
		c.printf("reset")
	case "status":
		elapsed := c.ctrl.Tick()
		c.printf("%s %s", c.ctrl.State(), stopwatch.Format(elapsed))
	case "laps":
		s := c.ctrl.Snapshot()
		c.report(report.WriteLaps(c.out, s.Laps, s.FastestLap, s.SlowestLap))
	case "fact", "insight":
		c.beginInsight(ctx)
	case "dismiss":
		c.ctrl.DismissInsight()
		c.printf("fact dismissed")
	case "help", "?":
		c.printf("%s", helpText)
	case "quit", "exit", "q":
		return true
	default:
		c.printf("unknown command %q (try help)", cmd)
	}
	return false
}

func (c *Console) beginInsight(ctx context.Context) {
	req, err := c.ctrl.BeginInsight()
	if err != nil {
		if errors.Is(err, controller.ErrInsightUnavailable) {
			c.printf("stop the stopwatch after at least one second to fetch a fact")
			return
		}
		c.report(err)
		return
	}
	c.printf("fetching a fact about %d seconds...", req.Seconds)
	go func() {
		select {
		case c.replies <- req.Run(ctx):
		case <-ctx.Done():
		}
	}()
}

// report prints err if set and reports whether the command succeeded.
func (c *Console) report(err error) bool {
	if err == nil {
		return true
	}
	c.printf("error: %v", err)
	return false
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}
