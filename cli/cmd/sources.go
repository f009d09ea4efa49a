package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-kpi/cli/internal/client"
	"github.com/telhawk-systems/telhawk-kpi/cli/pkg/output"
)

func newSourcesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage KPI sources",
		Long:  "List and edit the named index sets host KPIs are computed over",
	}
	cmd.AddCommand(
		newSourcesListCmd(a),
		newSourcesGetCmd(a),
		newSourcesSetCmd(a),
		newSourcesDeleteCmd(a),
	)
	return cmd
}

func newSourcesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			sources, err := a.client(cmd).ListSources(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list sources: %w", err)
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				return output.JSON(w, sources)
			}
			if len(sources) == 0 {
				output.Info(w, "No sources found")
				return nil
			}
			tbl := output.NewTable("ID", "NAME", "INDICES")
			for _, s := range sources {
				tbl.AddRow(s.ID, s.Name, strings.Join(s.Indices, ","))
			}
			tbl.Render(w)
			return nil
		},
	}
}

func newSourcesGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			s, err := a.client(cmd).GetSource(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get source: %w", err)
			}
			w := cmd.OutOrStdout()
			if format == formatJSON {
				return output.JSON(w, s)
			}
			printSource(cmd, s)
			return nil
		},
	}
}

func newSourcesSetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Create or replace a source",
		Example: `  thawk-kpi sources set windows --name "Windows hosts" --index winlogbeat-* --index auditbeat-*
  thawk-kpi sources set zeek --index zeek-* --field source_ip=id.orig_h --field destination_ip=id.resp_h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			indices, _ := cmd.Flags().GetStringSlice("index")
			fields, _ := cmd.Flags().GetStringToString("field")
			if len(indices) == 0 {
				return fmt.Errorf("at least one --index is required")
			}
			if name == "" {
				name = args[0]
			}

			s, err := a.client(cmd).SaveSource(cmd.Context(), client.Source{
				ID:      args[0],
				Name:    name,
				Indices: indices,
				Fields:  fields,
			})
			if err != nil {
				return fmt.Errorf("failed to save source: %w", err)
			}
			output.Success(cmd.OutOrStdout(), "Source '%s' saved", s.ID)
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name (default: the id)")
	cmd.Flags().StringSlice("index", nil, "index pattern, repeatable")
	cmd.Flags().StringToString("field", nil, "field mapping override, e.g. host_name=agent.hostname")
	return cmd
}

func newSourcesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client(cmd).DeleteSource(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete source: %w", err)
			}
			output.Success(cmd.OutOrStdout(), "Source '%s' deleted", args[0])
			return nil
		},
	}
}

func printSource(cmd *cobra.Command, s *client.Source) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ID:       %s\n", s.ID)
	fmt.Fprintf(w, "Name:     %s\n", s.Name)
	fmt.Fprintf(w, "Indices:  %s\n", strings.Join(s.Indices, ", "))
	keys := make([]string, 0, len(s.Fields))
	for k, v := range s.Fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "Field:    %s=%s\n", k, s.Fields[k])
	}
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:  %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}
