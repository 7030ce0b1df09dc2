package cmd

import (
	"fmt"
	"os"

	"github.com/andresmejia3/backbeat/internal/report"
	"github.com/andresmejia3/backbeat/internal/session"
	"github.com/andresmejia3/backbeat/internal/timeutil"
	"github.com/andresmejia3/backbeat/internal/utils"
	"github.com/spf13/cobra"
)

var (
	reportOutput string
	reportLimit  int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write an HTML chart report of the last session and your history",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		checks, err := DB.ListChecks(ctx, reportLimit)
		if err != nil {
			utils.Die("Failed to load posture checks", err, nil)
		}
		practice, err := DB.ListPracticeSessions(ctx, reportLimit)
		if err != nil {
			utils.Die("Failed to load practice sessions", err, nil)
		}

		f, err := os.Create(reportOutput)
		if err != nil {
			utils.Die("Failed to create report file", err, nil)
		}
		defer f.Close()

		data := report.Data{
			Snapshot: session.NewAggregator(ctx, DB, timeutil.RealClock{}).Snapshot(),
			Checks:   checks,
			Practice: practice,
		}
		if err := report.Write(f, data); err != nil {
			utils.Die("Failed to render report", err, nil)
		}
		fmt.Fprintf(os.Stderr, "📊 Report written to %s\n", reportOutput)
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "backbeat-report.html", "Output HTML file")
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "l", 500, "Maximum checks and practice sessions to include")
	rootCmd.AddCommand(reportCmd)
}
