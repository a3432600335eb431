package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/dexroute/internal/config"
	"github.com/katalvlaran/dexroute/internal/logging"
)

var (
	configPath   string
	snapshotPath string
	jsonOutput   bool

	cfg    config.Config
	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "dexroute",
	Short:         "Find value-maximizing swap routes across DEX pool snapshots",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = os.Getenv("DEXROUTE_CONFIG")
		}
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return err
		}
		if snapshotPath == "" {
			snapshotPath = cfg.Server.Snapshot
		}
		logger = logging.New(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (.yaml or .toml); defaults to $DEXROUTE_CONFIG")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "pool snapshot file (.yaml, .yml or .json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(ratiosCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
