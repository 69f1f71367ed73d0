package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/config"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/server"
)

func newTokenCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the insights API",
		Long:  "Signs an HS256 token with JWT_SECRET for the given subject and prints it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtConfig, err := config.NewJWTConfig()
			if err != nil {
				return fmt.Errorf("failed to create JWT config: %w", err)
			}
			token, err := server.NewJWTService(jwtConfig).GenerateToken(subject)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Token subject, e.g. the admin account name (required)")
	if err := cmd.MarkFlagRequired("subject"); err != nil {
		panic(fmt.Sprintf("failed to mark subject flag as required: %v", err))
	}
	return cmd
}
