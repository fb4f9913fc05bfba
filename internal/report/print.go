package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/fakeyudi/chronogen/internal/laps"
	"github.com/fakeyudi/chronogen/internal/stopwatch"
)

// WriteLaps prints laps newest first as a table. fastest and slowest are lap
// numbers to mark, 0 for none.
func WriteLaps(w io.Writer, ls []laps.Lap, fastest, slowest int) error {
	if len(ls) == 0 {
		_, err := fmt.Fprintln(w, "No laps recorded")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Lap", "Split", "Total", "")
	for _, l := range lo.Reverse(append([]laps.Lap(nil), ls...)) {
		note := ""
		switch l.Number {
		case fastest:
			note = "fastest"
		case slowest:
			note = "slowest"
		}
		if err := table.Append(
			fmt.Sprintf("%d", l.Number),
			stopwatch.Format(l.Split),
			stopwatch.Format(l.Total),
			note,
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// Print writes a plain-text rendering of run.
func Print(w io.Writer, run *Run) error {
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "  Total:    %s\n", stopwatch.Format(run.Total))
	fmt.Fprintf(w, "  Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Stopped:  %s\n", run.StoppedAt.Format("2006-01-02 15:04:05 MST"))
	if run.Author != "" {
		fmt.Fprintf(w, "  Author:   %s\n", run.Author)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Laps")
	if err := WriteLaps(w, run.Laps, run.FastestLap, run.SlowestLap); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if run.Insight != nil {
		fmt.Fprintln(w, "## Insight")
		fmt.Fprintf(w, "  %s\n", run.Insight.Text)
	}
	return nil
}
