package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-kpi/cli/internal/client"
	"github.com/telhawk-systems/telhawk-kpi/cli/pkg/output"
)

func newHostDetailsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host-details",
		Short: "Show authentication and network KPIs of a host",
		Example: `  thawk-kpi host-details --host web-01 --last 24h
  thawk-kpi host-details --host web-01 --from 2024-05-01 --to 2024-05-02 --interval 1h
  thawk-kpi host-details --host dc-01 --source windows --last 7d -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			if host == "" {
				return fmt.Errorf("--host is required")
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			last, _ := cmd.Flags().GetString("last")
			start, end, err := client.ParseTimeRange(from, to, last, a.now())
			if err != nil {
				return err
			}

			source, _ := cmd.Flags().GetString("source")
			indices, _ := cmd.Flags().GetStringSlice("index")
			interval, _ := cmd.Flags().GetString("interval")
			inspect, _ := cmd.Flags().GetBool("inspect")

			details, err := a.client(cmd).HostDetails(cmd.Context(), client.HostDetailsRequest{
				SourceID: source,
				HostName: host,
				TimeRange: client.TimeRange{
					From:     start.UnixMilli(),
					To:       end.UnixMilli(),
					Interval: interval,
				},
				DefaultIndex: indices,
				Inspect:      inspect,
			})
			if err != nil {
				return fmt.Errorf("host details failed: %w", err)
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				return output.JSON(w, details)
			}

			output.Info(w, "Host %s, %s to %s (interval %s)",
				host, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), details.Interval)
			tbl := output.NewTable("METRIC", "TOTAL", "BUCKETS", "HISTOGRAM")
			addMetric(tbl, "auth success", details.AuthSuccess, details.AuthSuccessHistogram)
			addMetric(tbl, "auth failure", details.AuthFailure, details.AuthFailureHistogram)
			addMetric(tbl, "unique source IPs", details.UniqueSourceIPs, details.UniqueSourceIPsHistogram)
			addMetric(tbl, "unique destination IPs", details.UniqueDestinationIPs, details.UniqueDestinationIPsHistogram)
			tbl.Render(w)

			if details.Inspect != nil {
				fmt.Fprintln(w)
				output.Info(w, "Store queries:")
				return output.JSON(w, details.Inspect.DSL)
			}
			return nil
		},
	}
	cmd.Flags().String("host", "", "host name")
	cmd.Flags().String("source", "", "source id (default: the service default source)")
	cmd.Flags().StringSlice("index", nil, "index patterns, overrides the source")
	cmd.Flags().String("from", "", "range start: RFC3339, epoch ms, now or -<duration>")
	cmd.Flags().String("to", "", "range end (default: now)")
	cmd.Flags().String("last", "", "relative range, e.g. 15m, 24h, 7d")
	cmd.Flags().String("interval", "", "bucket width, e.g. 30m or 1h (default: automatic)")
	cmd.Flags().Bool("inspect", false, "print the store queries behind the result")
	return cmd
}

func addMetric(tbl *output.Table, name string, total int64, hist []client.HistogramPoint) {
	if hist == nil {
		tbl.AddRow(name, fmt.Sprint(total), "-", "")
		return
	}
	values := make([]int64, len(hist))
	for i, p := range hist {
		values[i] = p.Y
	}
	tbl.AddRow(name, fmt.Sprint(total), fmt.Sprint(len(hist)), output.Sparkline(values))
}
