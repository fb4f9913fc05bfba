package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/chronogen/internal/report"
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Print an exported stopwatch report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := report.Load(args[0])
		if err != nil {
			return err
		}
		return report.Print(cmd.OutOrStdout(), run)
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
