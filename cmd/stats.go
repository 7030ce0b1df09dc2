package cmd

import (
	"fmt"

	"github.com/andresmejia3/backbeat/internal/session"
	"github.com/andresmejia3/backbeat/internal/timeutil"
	"github.com/andresmejia3/backbeat/internal/ui"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the statistics of the last session",
	Run: func(cmd *cobra.Command, args []string) {
		agg := session.NewAggregator(cmd.Context(), DB, timeutil.RealClock{})
		fmt.Println(ui.RenderStats(agg.Snapshot()))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
