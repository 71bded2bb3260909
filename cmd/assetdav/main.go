package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "assetdav",
	Short: "WebDAV view of a creative-asset catalog",
	Long: `assetdav serves projects, packs, models, texture sets, sprites and sounds
from an asset catalog as a browsable WebDAV tree.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $XDG_CONFIG_HOME/assetdav/config.yaml)")

	rootCmd.AddCommand(serveCmd, initCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies its logging section.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		return nil, fmt.Errorf("failed to open log output: %w", err)
	}

	return cfg, nil
}
