package cmd

import (
	"os"

	"flyhigh/cmd/flyhigh/globals"
	"flyhigh/internal/export"
	"flyhigh/internal/timeseries"

	"github.com/spf13/cobra"
)

var exportOpts queryFlags
var exportOutput string

func init() {
	exportOpts.register(exportCmd, "days-to-departure")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "csv file to write, - is stdout")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write grouped price series as csv for charting.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)

		req, err := exportOpts.request(value)
		if err != nil {
			return err
		}

		s, err := openStore(ctx, value)
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := timeseries.NewQuerier(s, value.Location).Query(ctx, req)
		if err != nil {
			return err
		}

		if exportOutput == "-" {
			return export.WriteCSV(cmd.OutOrStdout(), result)
		}
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		err = export.WriteCSV(f, result)
		if err != nil {
			return err
		}
		return f.Close()
	},
}
