package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-kpi/cli/internal/client"
	"github.com/telhawk-systems/telhawk-kpi/cli/internal/config"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// app holds state shared by every command of one invocation.
type app struct {
	cfgFile string
	cfg     *config.Config
	now     func() time.Time
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	rootCmd := &cobra.Command{
		Use:   "thawk-kpi",
		Short: "TelHawk host KPI CLI",
		Long: `thawk-kpi queries the TelHawk KPI service for per-host authentication
and network activity, and manages the sources those queries run against.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.initConfig(cmd)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.thawk/kpi.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use (default: current profile)")
	rootCmd.PersistentFlags().StringP("output", "o", formatTable, "output format: table, json")
	rootCmd.PersistentFlags().String("url", "", "KPI service URL, overrides the profile")

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newHostDetailsCmd(a),
		newSourcesCmd(a),
		newTokenCmd(),
	)
	return rootCmd
}

func (a *app) initConfig(cmd *cobra.Command) {
	var err error
	a.cfg, err = config.Load(a.cfgFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Could not load config: %v\n", err)
		a.cfg = config.Default()
	}
}

// client builds a KPI client from the selected profile and --url.
func (a *app) client(cmd *cobra.Command) *client.KPIClient {
	name, _ := cmd.Flags().GetString("profile")
	p := a.cfg.Resolve(name)
	baseURL := p.URL
	if u, _ := cmd.Flags().GetString("url"); u != "" {
		baseURL = u
	}
	return client.NewKPIClient(baseURL, p.AccessToken)
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case formatTable, formatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}
