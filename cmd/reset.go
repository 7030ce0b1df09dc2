package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andresmejia3/backbeat/internal/utils"
	"github.com/spf13/cobra"
)

var (
	resetDB     bool
	resetConfig bool
	resetYes    bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset stored state (Database, Config File)",
	Long:  "Clears stored sessions, checks, practice log and calibration. Use --config-file to also delete the config file.",
	Run: func(cmd *cobra.Command, args []string) {
		// Without flags only the database is cleared
		if !resetDB && !resetConfig {
			resetDB = true
		}

		reader := bufio.NewReader(os.Stdin)

		if resetDB {
			if resetYes || confirm(reader, os.Stdout, "⚠️  Are you sure you want to delete all sessions, checks and practice logs?") {
				fmt.Println("🗑️  Clearing Database...")
				if err := DB.Reset(cmd.Context()); err != nil {
					utils.Die("Failed to reset database", err, nil)
				}
			}
		}

		if resetConfig {
			if resetYes || confirm(reader, os.Stdout, fmt.Sprintf("⚠️  Are you sure you want to delete %s?", configPath)) {
				fmt.Println("🗑️  Removing Config File...")
				if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
					fmt.Fprintf(os.Stderr, "⚠️  Failed to remove %s: %v\n", configPath, err)
				}
			}
		}

		fmt.Println("✨ Reset Complete.")
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetDB, "data", false, "Clear the database")
	resetCmd.Flags().BoolVar(&resetConfig, "config-file", false, "Delete the config file")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}
