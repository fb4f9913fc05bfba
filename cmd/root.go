package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/chronogen/internal/config"
	"github.com/fakeyudi/chronogen/internal/insight"
	"github.com/fakeyudi/chronogen/internal/logging"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger is built from cfg.LogLevel in PersistentPreRunE.
var logger *logrus.Logger

var rootCmd = &cobra.Command{
	Use:           "chronogen",
	Short:         "A terminal stopwatch with laps and duration facts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.ApplyEnv(config.Merge(global, project))

		logger = logging.New(cfg.LogLevel, cmd.ErrOrStderr())
		logger.WithFields(logrus.Fields{
			"format":   cfg.DefaultFormat,
			"interval": cfg.SampleInterval(),
			"model":    cfg.InsightModel,
		}).Debug("configuration loaded")
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// newGenerator builds the insight client described by c.
func newGenerator(c config.Config, log logrus.FieldLogger) *insight.Client {
	rest := insight.NewDefaultRestyClient(c.InsightAPIURL, c.InsightTimeout())
	return insight.NewClient(log, rest, c.APIKey, c.InsightModel)
}
