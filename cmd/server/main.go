package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"wardwatch/internal/config"

	"github.com/spf13/cobra"
)

const programName = "wardwatch"

type configKey struct{}

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Weighted engagement and notification engine for civic issues",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context(), configFrom(cmd))
		},
	}

	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file (overrides CONFIG_PATH)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := os.Setenv("CONFIG_PATH", configFile); err != nil {
				return err
			}
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		slog.SetDefault(newLogger(cfg.Log))
		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(seedCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error(), "component", programName)
		os.Exit(1)
	}
}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Config)
	return cfg
}
