package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var factCmd = &cobra.Command{
	Use:   "fact <seconds>",
	Short: "Print a fun fact about a duration",
	Long: `Ask the insight service for a fact about a whole number of seconds.
Service failures print fallback text rather than failing the command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid seconds %q: must be a whole number", args[0])
		}

		res := newGenerator(GetConfig(), logger).Generate(cmd.Context(), seconds)
		cmd.Println(res.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(factCmd)
}
