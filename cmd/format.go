package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/chronogen/internal/stopwatch"
)

var formatCmd = &cobra.Command{
	Use:   "format <milliseconds>",
	Short: "Print milliseconds in the MM:SS.cc display format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid milliseconds %q: must be an integer", args[0])
		}
		cmd.Println(stopwatch.FormatMillis(ms))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatCmd)
}
