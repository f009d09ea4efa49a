package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-kpi/cli/internal/config"
	"github.com/telhawk-systems/telhawk-kpi/cli/pkg/output"
)

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a KPI service profile",
		Long:  "Store the service URL and access token of a profile and make it current",
		Example: `  thawk-kpi login --url https://kpi.example.com --token eyJhbGciOi...
  thawk-kpi login --profile lab --url http://localhost:8084`,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			token, _ := cmd.Flags().GetString("token")
			profile, _ := cmd.Flags().GetString("profile")
			if profile == "" {
				profile = "default"
			}
			if url == "" {
				url = config.DefaultURL
			}

			if err := a.cfg.SaveProfile(profile, url, token); err != nil {
				return fmt.Errorf("failed to save profile: %w", err)
			}
			output.Success(cmd.OutOrStdout(), "Profile '%s' saved (%s)", profile, url)
			if token == "" {
				output.Warn(cmd.OutOrStdout(), "No token stored, requests are sent unauthenticated")
			}
			return nil
		},
	}
	cmd.Flags().String("token", "", "access token (JWT)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove a saved profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, _ := cmd.Flags().GetString("profile")
			if profile == "" {
				profile = a.cfg.CurrentProfile
			}
			if err := a.cfg.RemoveProfile(profile); err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "Logged out of profile '%s'", profile)
			return nil
		},
	}
}
