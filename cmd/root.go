package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metro-research/venuescout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "venuescout",
	Short: "NYC neighborhood venue discovery and enrichment pipeline",
	Long:  "Fetches NYC neighborhoods, searches the venue directory around each one, filters by category, enriches venues with likes/rating/tips, and reports grouped statistics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
