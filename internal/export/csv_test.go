package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"flyhigh/internal/observation"
	"flyhigh/internal/store"
	"flyhigh/internal/timeseries"
	"flyhigh/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDayIndex(t *testing.T) {
	testCases := []struct {
		days     float64
		expected int
	}{
		{days: 0.25, expected: 1},
		{days: 1, expected: 1},
		{days: 1.01, expected: 2},
		{days: 23 + 1.0/24, expected: 24},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, DayIndex(test.days), test.days)
	}
}

func TestWriteCSV(t *testing.T) {
	utc := time.UTC
	s, _ := testutil.OpenMemoryStore(t, utc)
	departureDate := time.Date(2019, time.August, 24, 0, 0, 0, 0, utc)
	testutil.Seed(t, s,
		testutil.Snapshot{
			Flight:     "X1",
			Date:       departureDate,
			Depart:     10 * time.Hour,
			Arrive:     23*time.Hour + 30*time.Minute,
			Price:      observation.KnownPrice(1500),
			ObservedAt: time.Date(2019, time.August, 1, 9, 0, 0, 0, utc),
		},
		testutil.Snapshot{
			Flight:     "X1",
			Date:       departureDate,
			Depart:     10 * time.Hour,
			Arrive:     23*time.Hour + 30*time.Minute,
			Price:      observation.Unknown,
			ObservedAt: time.Date(2019, time.August, 24, 6, 0, 0, 0, utc),
		},
	)

	result, err := timeseries.NewQuerier(s, utc).Query(context.Background(), timeseries.DaysToDeparture(store.Filter{}))
	require.NoError(t, err)

	var buff bytes.Buffer
	require.NoError(t, WriteCSV(&buff, result))

	records, err := csv.NewReader(&buff).ReadAll()
	require.NoError(t, err)

	expected := [][]string{
		Header,
		{"2019-08-24_X1", "X1", "2019-08-24_X1", "2019-08-24", "2019-08-24T10:00:00Z", "2019-08-24T23:30:00Z", "2019-08-24T06:00:00Z", "1", ""},
		{"2019-08-24_X1", "X1", "2019-08-24_X1", "2019-08-24", "2019-08-24T10:00:00Z", "2019-08-24T23:30:00Z", "2019-08-01T09:00:00Z", "24", "1500"},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
