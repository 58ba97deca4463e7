package main

import (
	"fmt"
	"log/slog"
	"wardwatch/internal/db"

	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := db.Open(configFrom(cmd).Database)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			slog.Info("migration complete")
			return nil
		},
	}
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load development wards, users and issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := db.Open(configFrom(cmd).Database)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			if err := db.Seed(gdb); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			slog.Info("seed complete")
			return nil
		},
	}
}
