package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "oohtrack",
	Short: "Out-of-home advertising placement tracker",
	Long:  "Imports agency spreadsheets of billboard and street-furniture placements, validates coordinates against city envelopes, deduplicates catalog names, and serves the registry over HTTP.",
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
