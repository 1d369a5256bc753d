package observation

import (
	"errors"
	"fmt"
	"time"
)

// Observation is one fare snapshot of one flight, for one departure date, taken at one
// booking time. Observations are never updated once they are stored.
type Observation struct {
	// ID is the row id assigned by the store, it is 0 for observations that have not
	// been stored yet.
	ID int64
	// FlightID is the opaque identifier the source gives the flight (carrier, routing
	// and schedule), it is never parsed.
	FlightID string
	// DepartureDate is midnight of the searched calendar day in the source location.
	DepartureDate time.Time
	Departure     time.Time
	Arrival       time.Time
	// Duration is the free form duration text, empty if the source did not show one.
	Duration string
	Price    Price
	// ObservedAt is the wall clock time of the fetch pass that saw this offer,
	// also known as the booking time.
	ObservedAt time.Time
}

var ErrInvalid = errors.New("invalid observation")

func invalid(o Observation, reason string) error {
	return fmt.Errorf("%w: flight %q on %s: %s", ErrInvalid, o.FlightID, o.DepartureDate.Format(time.DateOnly), reason)
}

// Validate checks the invariants every stored observation must hold.
func (o Observation) Validate() error {
	if o.FlightID == "" {
		return invalid(o, "empty flight id")
	}
	if o.DepartureDate.IsZero() || o.Departure.IsZero() || o.Arrival.IsZero() || o.ObservedAt.IsZero() {
		return invalid(o, "missing timestamp")
	}
	if amount, known := o.Price.Amount(); known && amount < 0 {
		return invalid(o, fmt.Sprintf("negative price %d", amount))
	}

	departure := o.Departure.In(o.DepartureDate.Location())
	y1, m1, d1 := departure.Date()
	y2, m2, d2 := o.DepartureDate.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return invalid(o, fmt.Sprintf("departure %s is not on the departure date", o.Departure.Format(time.DateTime)))
	}
	if o.Arrival.Before(o.Departure) {
		return invalid(o, "arrival before departure")
	}
	return nil
}

// DaysRemaining is the time between the booking time and departure in fractional days.
func (o Observation) DaysRemaining() float64 {
	return o.Departure.Sub(o.ObservedAt).Hours() / 24
}

// UniqueFlightID identifies one flight on one departure date.
func (o Observation) UniqueFlightID() string {
	return o.DepartureDate.Format(time.DateOnly) + "_" + o.FlightID
}
