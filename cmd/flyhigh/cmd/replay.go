package cmd

import (
	"fmt"
	"time"

	"flyhigh/cmd/flyhigh/globals"
	"flyhigh/cmd/flyhigh/utils"

	"github.com/spf13/cobra"
)

var replayFrom string
var replayTo string
var replayAll bool

func init() {
	replayCmd.Flags().StringVar(&replayFrom, "from", "", "first departure date of archived documents to replay")
	replayCmd.Flags().StringVar(&replayTo, "to", "", "last departure date of archived documents to replay")
	replayCmd.Flags().BoolVar(&replayAll, "all", false, "also replay documents that were already ingested")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Extract archived documents again and append their offers to the store.",
	Long: "Extract archived documents again and append their offers to the store.\n\n" +
		"By default only documents whose offers were never appended are replayed, " +
		"use --all to replay everything (this appends duplicate observations).",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)

		a, _, err := openArchive(value, true)
		if err != nil {
			return err
		}
		defer a.Close()

		from, err := optionalTime(replayFrom, value)
		if err != nil {
			return err
		}
		to, err := optionalTime(replayTo, value)
		if err != nil {
			return err
		}
		docs, err := a.List(ctx, from, to, replayAll)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to replay")
			return nil
		}

		s, err := openStore(ctx, value)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := newPipeline(value, s, a, false)
		if err != nil {
			return err
		}
		report := p.Replay(ctx, docs)
		printRunReport(cmd.OutOrStdout(), report)
		if failed := len(report.Failed()); failed > 0 {
			return fmt.Errorf("%d of %d documents failed, run id %s", failed, len(report.Results), report.ID)
		}
		return nil
	},
}

// optionalTime parses a time flag, an empty flag is the zero time.
func optionalTime(text string, value *globals.Value) (time.Time, error) {
	if text == "" {
		return time.Time{}, nil
	}
	return utils.ParseTime(text, value.Location)
}
