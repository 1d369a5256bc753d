package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"flyhigh/cmd/flyhigh/globals"
	"flyhigh/cmd/flyhigh/utils"
	"flyhigh/internal/store"
	"flyhigh/internal/timeseries"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// queryFlags are shared by every command that reads series.
type queryFlags struct {
	preset       string
	groupBy      string
	axis         string
	flight       string
	hour         string
	departFrom   string
	departTo     string
	observedFrom string
	observedTo   string
	skipUnknown  bool
}

func (f *queryFlags) register(cmd *cobra.Command, defaultPreset string) {
	flags := cmd.Flags()
	flags.StringVar(&f.preset, "preset", defaultPreset, "named query: "+strings.Join(timeseries.PresetNames, ", "))
	flags.StringVar(&f.groupBy, "group-by", "", "grouping, one of flight, departure_date, booking_hour, booking_day, departure_date+flight (overrides the preset)")
	flags.StringVar(&f.axis, "x", "", "x axis, one of auto, departure, departure_date, observed_at, days_remaining (overrides the preset)")
	flags.StringVar(&f.flight, "flight", "", "only this flight id")
	flags.StringVar(&f.hour, "hour", "", "booking hour of the route-at-booking preset, ex. \"2019-08-01 09\"")
	flags.StringVar(&f.departFrom, "depart-from", "", "first departure date")
	flags.StringVar(&f.departTo, "depart-to", "", "last departure date")
	flags.StringVar(&f.observedFrom, "observed-from", "", "only observations made at or after this time")
	flags.StringVar(&f.observedTo, "observed-to", "", "only observations made before this time")
	flags.BoolVar(&f.skipUnknown, "skip-unknown", false, "leave out observations without a price")
}

func (f *queryFlags) request(value *globals.Value) (timeseries.Request, error) {
	var filter store.Filter
	filter.FlightID = f.flight
	for _, field := range []struct {
		text string
		out  *time.Time
	}{
		{text: f.departFrom, out: &filter.DepartureFrom},
		{text: f.departTo, out: &filter.DepartureTo},
		{text: f.observedFrom, out: &filter.ObservedFrom},
		{text: f.observedTo, out: &filter.ObservedTo},
	} {
		t, err := optionalTime(field.text, value)
		if err != nil {
			return timeseries.Request{}, err
		}
		*field.out = t
	}
	hour, err := optionalTime(f.hour, value)
	if err != nil {
		return timeseries.Request{}, err
	}

	var req timeseries.Request
	if f.preset != "" {
		req, err = timeseries.Preset(f.preset, timeseries.PresetParams{
			FlightID: f.flight,
			Hour:     hour,
			Filter:   filter,
		}, value.Location)
		if err != nil {
			return timeseries.Request{}, err
		}
		mergeFilter(&req.Filter, filter)
	} else {
		req.Filter = filter
	}

	if f.groupBy != "" {
		req.GroupBy, err = timeseries.ParseGroupBy(f.groupBy)
		if err != nil {
			return timeseries.Request{}, err
		}
	}
	if f.axis != "" {
		req.Options.X, err = timeseries.ParseAxis(f.axis)
		if err != nil {
			return timeseries.Request{}, err
		}
	}
	req.Options.SkipUnknown = f.skipUnknown
	return req, nil
}

// mergeFilter adds the constraints of `extra` that the preset left open.
func mergeFilter(filter *store.Filter, extra store.Filter) {
	if filter.FlightID == "" {
		filter.FlightID = extra.FlightID
	}
	if filter.DepartureFrom.IsZero() {
		filter.DepartureFrom = extra.DepartureFrom
	}
	if filter.DepartureTo.IsZero() {
		filter.DepartureTo = extra.DepartureTo
	}
	if filter.ObservedFrom.IsZero() {
		filter.ObservedFrom = extra.ObservedFrom
	}
	if filter.ObservedTo.IsZero() {
		filter.ObservedTo = extra.ObservedTo
	}
}

var queryOpts queryFlags

func init() {
	queryOpts.register(queryCmd, "")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print grouped price series from the store.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)

		req, err := queryOpts.request(value)
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
		printResult(cmd.OutOrStdout(), result, value.Location)
		return nil
	},
}

func formatX(result timeseries.Result, p timeseries.Point, location *time.Location) string {
	if !result.X.IsTime() {
		return fmt.Sprintf("%.2f", p.X)
	}
	if result.X == timeseries.AxisDepartureDate {
		return p.Time.Format(time.DateOnly)
	}
	return p.Time.In(location).Format("2006-01-02 15:04")
}

func printResult(out io.Writer, result timeseries.Result, location *time.Location) {
	t := utils.NewTable(out)
	t.SetTitle(fmt.Sprintf("grouped by %s, x = %s", result.GroupBy, result.X))
	t.AppendHeader(table.Row{result.GroupBy.String(), result.X.String(), "price", "flight", "departure", "observed at"})
	points := 0
	for _, series := range result.Series {
		for _, p := range series.Points {
			o := p.Observation
			t.AppendRow(table.Row{
				series.Key,
				formatX(result, p, location),
				p.Price.String(),
				o.FlightID,
				o.Departure.In(location).Format("2006-01-02 15:04"),
				o.ObservedAt.In(location).Format("2006-01-02 15:04"),
			})
			points++
		}
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d series", len(result.Series)), fmt.Sprintf("%d points", points)})
	t.Render()
}
