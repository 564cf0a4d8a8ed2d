package main

import (
	"fmt"

	"github.com/gameshelf/backend/internal/auth"
	"github.com/spf13/cobra"
)

func tokenCommand(cli *cliContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Issue a bearer token for a user",
		Long:  `Sign a bearer token with the configured JWT secret, for local testing and service accounts.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := auth.NewManager(jwtSecret(cli.cfg), cli.cfg.Auth.TokenTTL)
			token, err := manager.GenerateToken(args[0], email)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email claim to embed in the token")

	return cmd
}
