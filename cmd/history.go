package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/backbeat/internal/store"
	"github.com/andresmejia3/backbeat/internal/utils"
	"github.com/spf13/cobra"
)

var (
	historyLimit    int
	historyPractice bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List logged posture checks (or practice sessions with --practice)",
	Run: func(cmd *cobra.Command, args []string) {
		if historyPractice {
			sessions, err := DB.ListPracticeSessions(cmd.Context(), historyLimit)
			if err != nil {
				utils.Die("Failed to list practice sessions", err, nil)
			}
			printPracticeSessions(os.Stdout, sessions)
			return
		}

		checks, err := DB.ListChecks(cmd.Context(), historyLimit)
		if err != nil {
			utils.Die("Failed to list posture checks", err, nil)
		}
		printChecks(os.Stdout, checks)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of rows to show")
	historyCmd.Flags().BoolVarP(&historyPractice, "practice", "p", false, "List practice sessions instead")
	rootCmd.AddCommand(historyCmd)
}

func printChecks(out io.Writer, checks []store.PostureCheck) {
	if len(checks) == 0 {
		fmt.Fprintln(out, "No posture checks found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tSCORE\tSESSION\tFEEDBACK")
	fmt.Fprintln(w, "----\t-----\t-------\t--------")
	for _, c := range checks {
		fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\n", c.CheckedAt.Local().Format("2006-01-02 15:04:05"), c.Score, shortID(c.SessionID), c.Feedback)
	}
	w.Flush()
}

func printPracticeSessions(out io.Writer, sessions []store.PracticeSession) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No practice sessions found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tMINUTES\tTEMPO\tNOTES")
	fmt.Fprintln(w, "--\t----\t-------\t-----\t-----")
	for _, s := range sessions {
		tempo := "-"
		if s.TempoBPM > 0 {
			tempo = fmt.Sprintf("%d bpm", s.TempoBPM)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02"), s.DurationMinutes, tempo, s.Notes)
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}
