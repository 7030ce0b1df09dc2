package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/andresmejia3/backbeat/internal/store"
	"github.com/spf13/cobra"
)

var practiceEntry store.PracticeSession

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Keep a log of practice sessions",
}

var practiceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validatePractice(practiceEntry); err != nil {
			return err
		}
		cmd.SilenceUsage = true

		entry := practiceEntry
		entry.CreatedAt = time.Now().UTC()
		id, err := DB.AddPracticeSession(cmd.Context(), entry)
		if err != nil {
			return fmt.Errorf("failed to save practice session: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✅ Logged practice session #%d (%d min)\n", id, entry.DurationMinutes)
		return nil
	},
}

func init() {
	practiceAddCmd.Flags().IntVarP(&practiceEntry.DurationMinutes, "minutes", "m", 0, "Duration in minutes (required)")
	practiceAddCmd.Flags().IntVarP(&practiceEntry.TempoBPM, "tempo", "t", 0, "Working tempo in BPM")
	practiceAddCmd.Flags().StringVarP(&practiceEntry.Notes, "notes", "n", "", "Free-form notes")
	practiceAddCmd.MarkFlagRequired("minutes")
	practiceCmd.AddCommand(practiceAddCmd)
	rootCmd.AddCommand(practiceCmd)
}

func validatePractice(p store.PracticeSession) error {
	if p.DurationMinutes <= 0 {
		return fmt.Errorf("--minutes must be positive, got %d", p.DurationMinutes)
	}
	if p.TempoBPM < 0 || p.TempoBPM > 400 {
		return fmt.Errorf("--tempo must be between 0 and 400, got %d", p.TempoBPM)
	}
	return nil
}
