package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"flyhigh/internal/components/telemetry"
	"flyhigh/internal/observation"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var stockholm = time.FixedZone("CEST", 2*60*60)

func makeObservation(flight string, day int, observedAt time.Time, price observation.Price) observation.Observation {
	date := time.Date(2019, time.August, day, 0, 0, 0, 0, stockholm)
	return observation.Observation{
		FlightID:      flight,
		DepartureDate: date,
		Departure:     date.Add(10 * time.Hour),
		Arrival:       date.Add(12*time.Hour + 5*time.Minute),
		Duration:      "2 h 5 min",
		Price:         price,
		ObservedAt:    observedAt,
	}
}

func openMemory(t *testing.T) (Store, *telemetry.Recorder) {
	t.Helper()
	tel := telemetry.NewRecorder()
	s, err := Open(context.Background(), ":memory:", Options{Location: stockholm, Telemetry: tel})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, tel
}

func TestAppendAndSelect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, tel := openMemory(t)

	observedAt := time.Date(2019, time.August, 1, 9, 0, 0, 0, stockholm)
	input := []observation.Observation{
		makeObservation("X1", 24, observedAt, observation.KnownPrice(1500)),
		makeObservation("X2", 24, observedAt, observation.Unknown),
		makeObservation("X1", 25, observedAt, observation.KnownPrice(0)),
	}
	input[1].Duration = ""

	n, err := s.Append(ctx, input)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.True(t, tel.Has(telemetry.LevelCount, "store:append-count"))

	all, err := s.Select(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	for i := range input {
		require.NotZero(t, all[i].ID)
		input[i].ID = all[i].ID
	}
	if diff := cmp.Diff(input, all, cmp.AllowUnexported(observation.Price{})); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	// unknown stays unknown and a known zero stays a known zero
	require.False(t, all[1].Price.Known())
	require.True(t, all[2].Price.Known())
}

func TestAppendIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, tel := openMemory(t)

	observedAt := time.Date(2019, time.August, 1, 9, 0, 0, 0, stockholm)
	batch := make([]observation.Observation, 5)
	for i := range batch {
		batch[i] = makeObservation("X1", 20+i, observedAt, observation.KnownPrice(int64(1000+i)))
	}
	batch[2].Price = observation.KnownPrice(-5)

	n, err := s.Append(ctx, batch)
	require.ErrorIs(t, err, ErrAppendFailed)
	require.ErrorIs(t, err, observation.ErrInvalid)
	require.Equal(t, 0, n)
	require.True(t, tel.Has(telemetry.LevelBroken, "store:append"))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestAppendKeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	s, _ := openMemory(t)

	observedAt := time.Date(2019, time.August, 1, 9, 0, 0, 0, stockholm)
	o := makeObservation("X1", 24, observedAt, observation.KnownPrice(1500))

	_, err := s.Append(ctx, []observation.Observation{o, o})
	require.NoError(t, err)
	_, err = s.Append(ctx, []observation.Observation{o})
	require.NoError(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestAppendEmpty(t *testing.T) {
	s, _ := openMemory(t)
	n, err := s.Append(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestSelectFilter(t *testing.T) {
	ctx := context.Background()
	s, _ := openMemory(t)

	first := time.Date(2019, time.August, 1, 9, 0, 0, 0, stockholm)
	second := first.Add(time.Hour)
	third := first.Add(24 * time.Hour)

	_, err := s.Append(ctx, []observation.Observation{
		makeObservation("X1", 24, first, observation.KnownPrice(1)),
		makeObservation("X2", 24, first, observation.KnownPrice(2)),
		makeObservation("X1", 25, second, observation.KnownPrice(3)),
		makeObservation("X1", 26, third, observation.KnownPrice(4)),
	})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		filter   Filter
		expected []int64
	}{
		{name: "everything", filter: Filter{}, expected: []int64{1, 2, 3, 4}},
		{name: "flight", filter: Filter{FlightID: "X1"}, expected: []int64{1, 3, 4}},
		{
			name: "departure range is inclusive",
			filter: Filter{
				DepartureFrom: time.Date(2019, time.August, 25, 0, 0, 0, 0, stockholm),
				DepartureTo:   time.Date(2019, time.August, 26, 0, 0, 0, 0, stockholm),
			},
			expected: []int64{3, 4},
		},
		{
			name:     "observed range is half-open",
			filter:   Filter{ObservedFrom: first, ObservedTo: second},
			expected: []int64{1, 2},
		},
		{
			name:     "combined",
			filter:   Filter{FlightID: "X1", ObservedFrom: second},
			expected: []int64{3, 4},
		},
		{name: "nothing", filter: Filter{FlightID: "missing"}, expected: nil},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			rows, err := s.Select(ctx, test.filter)
			require.NoError(t, err)

			var prices []int64
			for _, r := range rows {
				price, _ := r.Price.Amount()
				prices = append(prices, price)
			}
			require.Equal(t, test.expected, prices)
		})
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flights.db")

	s, err := Open(ctx, path, Options{Location: stockholm})
	require.NoError(t, err)
	observedAt := time.Date(2019, time.August, 1, 9, 0, 0, 0, stockholm)
	_, err = s.Append(ctx, []observation.Observation{
		makeObservation("X1", 24, observedAt, observation.KnownPrice(1500)),
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, Options{Location: stockholm})
	require.NoError(t, err)
	defer s.Close()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestOpenUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := Open(context.Background(), filepath.Join(blocker, "flights.db"), Options{})
	require.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = Open(context.Background(), "", Options{})
	require.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestReadDuringAppend(t *testing.T) {
	ctx := context.Background()
	s, _ := openMemory(t)

	observedAt := time.Date(2019, time.August, 1, 9, 0, 0, 0, stockholm)
	batch := make([]observation.Observation, 50)
	for i := range batch {
		batch[i] = makeObservation("X1", 24, observedAt.Add(time.Duration(i)*time.Second), observation.KnownPrice(int64(i)))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Append(ctx, batch)
		require.NoError(t, err)
	}()

	for range 10 {
		rows, err := s.Select(ctx, Filter{})
		require.NoError(t, err)
		require.Contains(t, []int{0, len(batch)}, len(rows))
	}
	wg.Wait()
}
