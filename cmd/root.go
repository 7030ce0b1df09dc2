package cmd

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/andresmejia3/backbeat/internal/config"
	"github.com/andresmejia3/backbeat/internal/store"
	"github.com/spf13/cobra"
)

// Options holds shared flag values for the detection commands
type Options struct {
	InputPath        string
	NthFrame         int
	Device           string
	Rate             float64
	MaxFrameFailures int
	WorkerScript     string
	Attempts         int
	Quiet            bool
}

var (
	// DB is the global store shared by subcommands
	DB store.Store
	// Cfg is the loaded configuration file (or defaults)
	Cfg *config.Config

	dbURL      string
	configPath string
)

// Version is the application version.
const Version = "0.1.0"

// skipStore marks commands that must run without opening the database.
const skipStore = "skip-store"

var rootCmd = &cobra.Command{
	Use:     "backbeat",
	Short:   "Drummer posture coach: live pose scoring from your webcam",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath == "" {
			if configPath, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		Cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		if cmd.Annotations[skipStore] == "true" {
			return nil
		}

		url, err := resolveDBURL(dbURL, Cfg.Database, os.Getenv)
		if err != nil {
			return err
		}
		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.Open(cmd.Context(), url)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Background: the main context may already be cancelled by Ctrl+C
			DB.Close(context.Background())
		}
	},
}

// resolveDBURL picks the connection string: the --db flag, then the config
// file, then POSTGRES_* environment variables, then the local SQLite file.
func resolveDBURL(flag, configured string, getenv func(string) string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if configured != "" {
		return configured, nil
	}
	if host := getenv("POSTGRES_HOST"); host != "" {
		user := getenv("POSTGRES_USER")
		pass := getenv("POSTGRES_PASSWORD")
		name := getenv("POSTGRES_DB")
		port := getenv("POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, pass),
			Host:   net.JoinHostPort(host, port),
			Path:   "/" + name,
		}
		return u.String(), nil
	}

	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backbeat.db"), nil
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database: postgres:// URL or SQLite file path (default: ~/.backbeat/backbeat.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.backbeat/config.yaml)")
}
