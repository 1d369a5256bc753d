package cmd

import (
	"fmt"
	"log/slog"

	"flyhigh/cmd/flyhigh/globals"
	"flyhigh/internal/components/chrono"
	libtelemetry "flyhigh/lib/telemetry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run a scrape pass on the configured cron schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)

		libtelemetry.InstrumentPerfStats(ctx)

		cron := chrono.NewStandardCron(value.Location, value.Tel)
		err := cron.Cron(value.Config.Schedule, func() {
			report, err := scrape(ctx, value, "", "")
			if err != nil {
				value.Tel.ReportBroken("schedule", err)
				return
			}
			slog.Info(
				"scrape pass finished",
				"run", report.ID,
				"dates", len(report.Results),
				"failed", len(report.Failed()),
				"written", report.Written(),
			)
		})
		if err != nil {
			return fmt.Errorf("schedule %q: %w", value.Config.Schedule, err)
		}

		cron.Start()
		slog.Info("waiting for the next scheduled pass", "schedule", value.Config.Schedule, "timezone", value.Location.String())
		<-ctx.Done()
		cron.Stop()
		return nil
	},
}
