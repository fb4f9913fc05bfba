package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/chronogen/internal/console"
	"github.com/fakeyudi/chronogen/internal/controller"
	"github.com/fakeyudi/chronogen/internal/logging"
	"github.com/fakeyudi/chronogen/internal/metrics"
	"github.com/fakeyudi/chronogen/internal/report"
	"github.com/fakeyudi/chronogen/internal/tui"
)

var (
	runPlain       bool
	runExport      bool
	runFormat      string
	runInterval    time.Duration
	runMetricsAddr string
	runAuthor      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive stopwatch session",
	Long: `Start a stopwatch session. With a terminal on stdin the full-screen UI is
used; otherwise (or with --plain) commands are read one per line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()
		interval := c.SampleInterval()
		if cmd.Flags().Changed("interval") {
			interval = runInterval
		}
		format := runFormat
		if format == "" {
			format = c.DefaultFormat
		}
		if runExport {
			// Reject a bad format before the session, not after it.
			if _, _, err := report.RendererFor(format); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		interactive := !runPlain && term.IsTerminal(os.Stdin.Fd())
		if interactive {
			// The UI owns the screen; keep log lines out of it.
			f, err := logging.OpenFile()
			if err != nil {
				return err
			}
			defer f.Close()
			logger.SetOutput(f)
		}

		metricsDone := make(chan struct{})
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		if runMetricsAddr != "" {
			go func() {
				defer close(metricsDone)
				if err := metrics.Serve(metricsCtx, logger, runMetricsAddr); err != nil {
					logger.WithError(err).Error("metrics endpoint failed")
				}
			}()
		} else {
			close(metricsDone)
		}
		defer func() {
			stopMetrics()
			<-metricsDone
		}()

		ctrl := controller.New(controller.Options{
			Interval: interval,
			Insights: newGenerator(c, logger),
			Log:      logger,
		})
		defer ctrl.Close()

		var err error
		if interactive {
			err = tui.Run(ctx, ctrl, logger)
		} else {
			err = console.New(ctrl, cmd.OutOrStdout(), logger).Run(ctx, cmd.InOrStdin())
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		if runExport {
			return exportRun(cmd, c.OutputDir, format, ctrl)
		}
		return nil
	},
}

// exportRun writes the session as a report if any time was recorded.
func exportRun(cmd *cobra.Command, dir, format string, ctrl *controller.Controller) error {
	ctrl.Tick()
	if ctrl.Elapsed() <= 0 {
		cmd.Println("Nothing timed, no report written.")
		return nil
	}

	run := report.FromSnapshot(ctrl.Snapshot(), runAuthor, time.Now())
	path, err := report.Save(dir, run, format)
	if err != nil {
		return err
	}
	logger.WithField("path", path).Info("report written")
	cmd.Printf("Report written: %s\n", path)
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "read line commands instead of starting the full-screen UI")
	runCmd.Flags().BoolVar(&runExport, "export", false, "write a report when the session ends")
	runCmd.Flags().StringVar(&runFormat, "format", "", "report format: markdown or json (overrides config)")
	runCmd.Flags().DurationVar(&runInterval, "interval", 10*time.Millisecond, "display sampling interval")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().StringVar(&runAuthor, "author", "", "author name recorded in exported reports")
	rootCmd.AddCommand(runCmd)
}
