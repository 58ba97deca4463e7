package main

import (
	"fmt"
	"wardwatch/internal/auth"
	"wardwatch/internal/db"
	"wardwatch/internal/models"

	"github.com/spf13/cobra"
)

// tokenCommand mints a bearer token for local testing.
func tokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email|user-token>",
		Short: "Print a development bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			gdb, err := db.Open(cfg.Database)
			if err != nil {
				return err
			}

			var user models.User
			if err := gdb.Where("email = ? OR token = ?", args[0], args[0]).First(&user).Error; err != nil {
				return fmt.Errorf("find user %q: %w", args[0], err)
			}

			tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
			signed, err := tokens.Generate(user.Token, string(user.Role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
}
