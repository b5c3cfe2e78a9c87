// Package cmd holds the chargepilot CLI.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/evopti/chargepilot/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "chargepilot",
	Short: "EV charging client for the home-energy simulator",
	Long: `chargepilot plans an EV charging schedule from the simulator's
hourly profiles and drives the charger through the simulated day.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file. A missing file is only an
// error when the user named one explicitly; the defaults target the
// local simulator.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		if flag := cmd.Flag("config"); flag != nil && flag.Changed {
			return nil, err
		}
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}
