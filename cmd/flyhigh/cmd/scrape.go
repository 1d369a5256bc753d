package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"flyhigh/cmd/flyhigh/globals"
	"flyhigh/cmd/flyhigh/utils"
	"flyhigh/internal/pipeline"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeFrom string
var scrapeTo string

func init() {
	scrapeCmd.Flags().StringVar(&scrapeFrom, "from", "", "first departure date (YYYY-MM-DD), overrides dates.from")
	scrapeCmd.Flags().StringVar(&scrapeTo, "to", "", "last departure date (YYYY-MM-DD), overrides dates.to")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch every departure date of the configured range once and store the offers.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		report, err := scrape(cmd.Context(), value, scrapeFrom, scrapeTo)
		if err != nil {
			return err
		}
		printRunReport(cmd.OutOrStdout(), report)
		if failed := len(report.Failed()); failed > 0 {
			return fmt.Errorf("%d of %d dates failed, run id %s", failed, len(report.Results), report.ID)
		}
		return nil
	},
}

// scrape runs one pass over the date range, only a store that cannot be opened
// is returned as an error.
func scrape(ctx context.Context, value *globals.Value, fromFlag, toFlag string) (pipeline.RunReport, error) {
	dates := value.Config.Dates
	if fromFlag != "" {
		dates.From = fromFlag
	}
	if toFlag != "" {
		dates.To = toFlag
	}
	from, to, err := dates.Resolve(value.Clock.Now(), value.Location)
	if err != nil {
		return pipeline.RunReport{}, err
	}

	s, err := openStore(ctx, value)
	if err != nil {
		return pipeline.RunReport{}, err
	}
	defer s.Close()

	var docs pipeline.Archive
	a, ok, err := openArchive(value, false)
	if err != nil {
		return pipeline.RunReport{}, err
	}
	if ok {
		defer a.Close()
		docs = a
	}

	p, err := newPipeline(value, s, docs, true)
	if err != nil {
		return pipeline.RunReport{}, err
	}
	return p.Run(ctx, from, to), nil
}

func printRunReport(out io.Writer, report pipeline.RunReport) {
	t := utils.NewTable(out)
	t.SetTitle(fmt.Sprintf("run %s", report.ID))
	t.AppendHeader(table.Row{"date", "observed at", "fragments", "extracted", "normalized", "written", "error"})
	for _, res := range report.Results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		observedAt := ""
		if !res.ObservedAt.IsZero() {
			observedAt = res.ObservedAt.Format(time.DateTime)
		}
		t.AppendRow(table.Row{
			res.Date.Format(time.DateOnly),
			observedAt,
			res.Fragments,
			res.Extracted,
			res.Normalized,
			res.Written,
			errText,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", report.Written(), fmt.Sprintf("%d failed", len(report.Failed()))})
	t.Render()

	fmt.Fprintf(out, "took %s\n", report.Finished.Sub(report.Started).Round(time.Millisecond))
}
