package timeseries

import (
	"context"
	"errors"
	"testing"
	"time"

	"flyhigh/internal/observation"
	"flyhigh/internal/store"
	"flyhigh/lib/testutil"

	"github.com/stretchr/testify/require"
)

var stockholm = time.FixedZone("CEST", 2*60*60)

func day(d int) time.Time {
	return time.Date(2019, time.August, d, 0, 0, 0, 0, stockholm)
}

func booking(d, hour, minute int) time.Time {
	return time.Date(2019, time.August, d, hour, minute, 0, 0, stockholm)
}

// seed stores a small route history:
//
//	X1 on the 24th seen at 3 booking times (out of order)
//	X2 on the 24th and X1 on the 25th seen once each at the first booking time
func seed(t *testing.T) store.Store {
	s, _ := testutil.OpenMemoryStore(t, stockholm)
	testutil.Seed(t, s,
		testutil.Snapshot{Flight: "X1", Date: day(24), Depart: 10 * time.Hour, Arrive: 12 * time.Hour, Price: observation.KnownPrice(1700), ObservedAt: booking(3, 9, 0)},
		testutil.Snapshot{Flight: "X1", Date: day(24), Depart: 10 * time.Hour, Arrive: 12 * time.Hour, Price: observation.KnownPrice(1500), ObservedAt: booking(1, 9, 0)},
		testutil.Snapshot{Flight: "X2", Date: day(24), Depart: 7 * time.Hour, Arrive: 9 * time.Hour, Price: observation.Unknown, ObservedAt: booking(1, 9, 0)},
		testutil.Snapshot{Flight: "X1", Date: day(25), Depart: 10 * time.Hour, Arrive: 12 * time.Hour, Price: observation.KnownPrice(1400), ObservedAt: booking(1, 9, 30)},
		testutil.Snapshot{Flight: "X1", Date: day(24), Depart: 10 * time.Hour, Arrive: 12 * time.Hour, Price: observation.KnownPrice(1600), ObservedAt: booking(2, 9, 0)},
	)
	return s
}

func prices(series Series) []string {
	out := make([]string, len(series.Points))
	for i, p := range series.Points {
		out[i] = p.Price.String()
	}
	return out
}

func TestGroupByFlight(t *testing.T) {
	q := NewQuerier(seed(t), stockholm)
	res, err := q.Query(context.Background(), Request{
		Filter:  store.Filter{DepartureFrom: day(24), DepartureTo: day(24)},
		GroupBy: ByFlight,
	})
	require.NoError(t, err)
	require.Equal(t, AxisObservedAt, res.X)

	groups := res.Map()
	require.Len(t, groups, 2)

	x1 := groups["X1"]
	require.Len(t, x1.Points, 3)
	require.Equal(t, []string{"1500", "1600", "1700"}, prices(x1))
	for i := 1; i < len(x1.Points); i++ {
		require.True(t, x1.Points[i-1].Observation.ObservedAt.Before(x1.Points[i].Observation.ObservedAt))
	}
	require.Equal(t, float64(booking(1, 9, 0).Unix()), x1.Points[0].X)

	// unknown prices stay in the series
	require.Equal(t, []string{"unknown"}, prices(groups["X2"]))
}

func TestSkipUnknown(t *testing.T) {
	q := NewQuerier(seed(t), stockholm)
	res, err := q.Query(context.Background(), Request{
		GroupBy: ByFlight,
		Options: Options{SkipUnknown: true},
	})
	require.NoError(t, err)
	require.Len(t, res.Series, 1)
	require.Equal(t, "X1", res.Series[0].Key)
}

func TestGroupKeys(t *testing.T) {
	testCases := []struct {
		groupBy GroupBy
		axis    Axis
		keys    []string
	}{
		{groupBy: ByFlight, axis: AxisObservedAt, keys: []string{"X1", "X2"}},
		{groupBy: ByDepartureDate, axis: AxisObservedAt, keys: []string{"2019-08-24", "2019-08-25"}},
		{groupBy: ByBookingHour, axis: AxisDeparture, keys: []string{"2019-08-01 09", "2019-08-02 09", "2019-08-03 09"}},
		{groupBy: ByBookingDay, axis: AxisDeparture, keys: []string{"2019-08-01", "2019-08-02", "2019-08-03"}},
		{groupBy: ByDepartureDateFlight, axis: AxisObservedAt, keys: []string{"2019-08-24_X1", "2019-08-24_X2", "2019-08-25_X1"}},
	}

	q := NewQuerier(seed(t), stockholm)
	for _, test := range testCases {
		t.Run(test.groupBy.String(), func(t *testing.T) {
			res, err := q.Query(context.Background(), Request{GroupBy: test.groupBy})
			require.NoError(t, err)
			require.Equal(t, test.axis, res.X)

			var keys []string
			for _, s := range res.Series {
				keys = append(keys, s.Key)
			}
			require.Equal(t, test.keys, keys)
		})
	}
}

func TestBookingHourOrdersByDeparture(t *testing.T) {
	q := NewQuerier(seed(t), stockholm)
	res, err := q.Query(context.Background(), Request{GroupBy: ByBookingHour})
	require.NoError(t, err)

	first := res.Map()["2019-08-01 09"]
	require.Len(t, first.Points, 3)
	var flights []string
	for _, p := range first.Points {
		flights = append(flights, p.Observation.UniqueFlightID())
	}
	require.Equal(t, []string{"2019-08-24_X2", "2019-08-24_X1", "2019-08-25_X1"}, flights)
}

func TestDaysRemainingAxis(t *testing.T) {
	q := NewQuerier(seed(t), stockholm)
	res, err := q.Query(context.Background(), DaysToDeparture(store.Filter{FlightID: "X1"}))
	require.NoError(t, err)
	require.False(t, res.X.IsTime())

	series := res.Map()["2019-08-24_X1"]
	require.Len(t, series.Points, 3)
	// ascending days remaining means the latest booking comes first
	require.Equal(t, []string{"1700", "1600", "1500"}, prices(series))
	require.InDelta(t, 21+1.0/24, series.Points[0].X, 1e-9)
	require.Equal(t, series.Points[0].X, series.Points[0].DaysRemaining)
	require.True(t, series.Points[0].Time.IsZero())
}

func TestPresets(t *testing.T) {
	q := NewQuerier(seed(t), stockholm)
	ctx := context.Background()

	res, err := q.Query(ctx, FlightOverDeparture("X1"))
	require.NoError(t, err)
	require.Equal(t, AxisDepartureDate, res.X)
	morning := res.Map()["2019-08-01 09"]
	require.Equal(t, []string{"1500", "1400"}, prices(morning))
	require.Equal(t, float64(day(24).Unix()), morning.Points[0].X)

	res, err = q.Query(ctx, RouteAtBooking(booking(1, 9, 45), stockholm))
	require.NoError(t, err)
	require.Len(t, res.Series, 2)
	require.Equal(t, []string{"1500", "1400"}, prices(res.Map()["X1"]))

	res, err = q.Query(ctx, BookingCurves(store.Filter{}))
	require.NoError(t, err)
	require.Equal(t, []string{"1500", "1600", "1700"}, prices(res.Map()["2019-08-24_X1"]))

	_, err = Preset("flight-over-departure", PresetParams{}, stockholm)
	require.Error(t, err)
	_, err = Preset("route-at-booking", PresetParams{}, stockholm)
	require.Error(t, err)
	_, err = Preset("nope", PresetParams{}, stockholm)
	require.Error(t, err)
	for _, name := range PresetNames {
		_, err := Preset(name, PresetParams{FlightID: "X1", Hour: booking(1, 9, 0)}, stockholm)
		require.NoError(t, err, name)
	}
}

func TestParseNames(t *testing.T) {
	for g, name := range groupByNames {
		parsed, err := ParseGroupBy(name)
		require.NoError(t, err)
		require.Equal(t, g, parsed)
	}
	for a, name := range axisNames {
		parsed, err := ParseAxis(name)
		require.NoError(t, err)
		require.Equal(t, a, parsed)
	}
	_, err := ParseGroupBy("carrier")
	require.Error(t, err)
}

type failingSource struct{}

func (failingSource) Select(context.Context, store.Filter) ([]observation.Observation, error) {
	return nil, errors.New("disk on fire")
}

func TestQueryError(t *testing.T) {
	_, err := NewQuerier(failingSource{}, nil).Query(context.Background(), Request{})
	require.EqualError(t, err, "disk on fire")
}
