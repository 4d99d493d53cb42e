// filepath: internal/cli/check_command.go
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/clock"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewCheckCommand runs one status and one usage cycle and exits. It is meant
// for hosts that schedule reconciliation with cron instead of the server.
func NewCheckCommand(options *GlobalOptions) *cobra.Command {
	var statusOnly, usageOnly bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a status and storage usage cycle once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if statusOnly && usageOnly {
				return fmt.Errorf("--status-only and --usage-only are mutually exclusive")
			}
			a, err := buildApp(options.Conf, afero.NewOsFs(), clock.WallClock)
			if err != nil {
				return err
			}
			defer a.gateway.Wait()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			if !usageOnly {
				report, err := a.monitor.TriggerStatus(ctx)
				if err != nil {
					return fmt.Errorf("status cycle failed: %w", err)
				}
				fmt.Fprintf(out, "status  cycle=%s checked=%d updated=%d down=%d alerts=%d",
					report.CycleID, report.Checked, report.Updated, report.Down, report.AlertsSent)
				if len(report.Alerted) > 0 {
					fmt.Fprintf(out, " alerted=%s", strings.Join(report.Alerted, ","))
				}
				fmt.Fprintln(out)
			}
			if !statusOnly {
				report, err := a.monitor.TriggerUsage(ctx)
				if err != nil {
					return fmt.Errorf("usage cycle failed: %w", err)
				}
				fmt.Fprintf(out, "storage cycle=%s updated=%d\n", report.CycleID, report.Updated)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status-only", false, "Only run the backup freshness cycle.")
	cmd.Flags().BoolVar(&usageOnly, "usage-only", false, "Only run the storage usage cycle.")
	return cmd
}
