package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/andresmejia3/backbeat/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the backbeat configuration file",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write the default configuration to --config",
	Annotations: map[string]string{skipStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(configPath, configForce); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✅ Wrote %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Annotations: map[string]string{skipStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(Cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// initConfig writes DefaultConfig to path. An existing file is kept unless force is set.
func initConfig(path string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return config.WriteConfig(path, config.DefaultConfig())
}
