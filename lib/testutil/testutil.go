package testutil

import (
	"context"
	"testing"
	"time"

	"flyhigh/internal/components/telemetry"
	"flyhigh/internal/observation"
	"flyhigh/internal/store"
)

// OpenMemoryStore opens an in-memory store with the schema applied, it is closed
// when the test finishes.
func OpenMemoryStore(t testing.TB, location *time.Location) (store.Store, *telemetry.Recorder) {
	t.Helper()

	tel := telemetry.NewRecorder()
	s, err := store.Open(context.Background(), ":memory:", store.Options{
		Location:  location,
		Telemetry: tel,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s, tel
}

// Snapshot describes an observation by its clock values, Depart and Arrive are
// offsets from midnight of Date.
type Snapshot struct {
	Flight     string
	Date       time.Time
	Depart     time.Duration
	Arrive     time.Duration
	Price      observation.Price
	ObservedAt time.Time
}

func (s Snapshot) Observation() observation.Observation {
	return observation.Observation{
		FlightID:      s.Flight,
		DepartureDate: s.Date,
		Departure:     s.Date.Add(s.Depart),
		Arrival:       s.Date.Add(s.Arrive),
		Price:         s.Price,
		ObservedAt:    s.ObservedAt,
	}
}

// Seed appends every snapshot in one batch.
func Seed(t testing.TB, s store.Store, snapshots ...Snapshot) []observation.Observation {
	t.Helper()

	observations := make([]observation.Observation, len(snapshots))
	for i, snap := range snapshots {
		observations[i] = snap.Observation()
	}
	_, err := s.Append(context.Background(), observations)
	if err != nil {
		t.Fatal(err)
	}
	return observations
}
