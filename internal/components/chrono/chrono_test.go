package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDays(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	cases := []struct {
		name   string
		from   time.Time
		to     time.Time
		expect []string
	}{
		{
			name:   "single day",
			from:   time.Date(2019, time.April, 1, 0, 0, 0, 0, loc),
			to:     time.Date(2019, time.April, 1, 0, 0, 0, 0, loc),
			expect: []string{"2019-04-01"},
		},
		{
			name:   "month boundary",
			from:   time.Date(2019, time.April, 29, 0, 0, 0, 0, loc),
			to:     time.Date(2019, time.May, 2, 0, 0, 0, 0, loc),
			expect: []string{"2019-04-29", "2019-04-30", "2019-05-01", "2019-05-02"},
		},
		{
			name:   "time of day is ignored",
			from:   time.Date(2019, time.April, 1, 18, 30, 0, 0, loc),
			to:     time.Date(2019, time.April, 2, 6, 0, 0, 0, loc),
			expect: []string{"2019-04-01", "2019-04-02"},
		},
		{
			name:   "inverted range",
			from:   time.Date(2019, time.April, 2, 0, 0, 0, 0, loc),
			to:     time.Date(2019, time.April, 1, 0, 0, 0, 0, loc),
			expect: nil,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			var got []string
			for _, d := range Days(test.from, test.to) {
				require.Equal(t, loc, d.Location())
				require.Equal(t, 0, d.Hour())
				got = append(got, d.Format(time.DateOnly))
			}
			require.Equal(t, test.expect, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	// 23:30 UTC is already the next day in CET
	instant := time.Date(2019, time.February, 26, 23, 30, 15, 0, time.UTC)

	require.True(t, TruncateHour(instant, loc).Equal(time.Date(2019, time.February, 27, 0, 0, 0, 0, loc)))
	require.True(t, TruncateDay(instant, loc).Equal(time.Date(2019, time.February, 27, 0, 0, 0, 0, loc)))
	require.True(t, TruncateHour(instant, time.UTC).Equal(time.Date(2019, time.February, 26, 23, 0, 0, 0, time.UTC)))
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	date, err := ParseDate("2019-08-24", loc)
	require.NoError(t, err)
	require.Equal(t, time.Date(2019, time.August, 24, 0, 0, 0, 0, loc), date)

	_, err = ParseDate("24/08/2019", loc)
	require.Error(t, err)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Not/AZone")
	require.Error(t, err)
}
