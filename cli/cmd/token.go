package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-kpi/kpi/pkg/tokens"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access token utilities",
	}

	mint := &cobra.Command{
		Use:   "mint",
		Short: "Sign an access token with the service secret",
		Long: `Sign an access token with the shared secret configured as auth.jwt_secret
on the KPI service. Intended for local setups and automation.`,
		Example: `  thawk-kpi token mint --secret "$KPI_AUTH_JWT_SECRET" --user analyst
  thawk-kpi token mint --secret "$KPI_AUTH_JWT_SECRET" --user ops --role admin --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			user, _ := cmd.Flags().GetString("user")
			roles, _ := cmd.Flags().GetStringSlice("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			if user == "" {
				return fmt.Errorf("--user is required")
			}

			token, err := tokens.NewTokenGenerator(secret, ttl).GenerateAccessToken(user, roles)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	mint.Flags().String("secret", "", "HMAC signing secret")
	mint.Flags().String("user", "", "user id (sub claim)")
	mint.Flags().StringSlice("role", nil, "role, repeatable")
	mint.Flags().Duration("ttl", 15*time.Minute, "token lifetime")

	cmd.AddCommand(mint)
	return cmd
}
