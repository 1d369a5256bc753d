package timeseries

import (
	"fmt"
	"time"

	"flyhigh/internal/components/chrono"
	"flyhigh/internal/store"
)

// FlightOverDeparture follows one flight id across departure dates, with one series
// per booking hour.
func FlightOverDeparture(flightID string) Request {
	return Request{
		Filter:  store.Filter{FlightID: flightID},
		GroupBy: ByBookingHour,
		Options: Options{X: AxisDepartureDate},
	}
}

// RouteAtBooking shows every flight of the route as seen during one booking hour.
func RouteAtBooking(hour time.Time, location *time.Location) Request {
	start := chrono.TruncateHour(hour, location)
	return Request{
		Filter: store.Filter{
			ObservedFrom: start,
			ObservedTo:   start.Add(time.Hour),
		},
		GroupBy: ByFlight,
		Options: Options{X: AxisDepartureDate},
	}
}

// BookingCurves gives the price history of every flight on every departure date.
func BookingCurves(filter store.Filter) Request {
	return Request{
		Filter:  filter,
		GroupBy: ByDepartureDateFlight,
		Options: Options{X: AxisObservedAt},
	}
}

// DaysToDeparture is BookingCurves measured in days before departure.
func DaysToDeparture(filter store.Filter) Request {
	return Request{
		Filter:  filter,
		GroupBy: ByDepartureDateFlight,
		Options: Options{X: AxisDaysRemaining},
	}
}

// PresetParams carries what the named presets may need.
type PresetParams struct {
	FlightID string
	Hour     time.Time
	Filter   store.Filter
}

var PresetNames = []string{
	"flight-over-departure",
	"route-at-booking",
	"booking-curves",
	"days-to-departure",
}

// Preset builds a named preset request.
func Preset(name string, params PresetParams, location *time.Location) (Request, error) {
	switch name {
	case "flight-over-departure":
		if params.FlightID == "" {
			return Request{}, fmt.Errorf("preset %q requires a flight id", name)
		}
		return FlightOverDeparture(params.FlightID), nil
	case "route-at-booking":
		if params.Hour.IsZero() {
			return Request{}, fmt.Errorf("preset %q requires a booking hour", name)
		}
		return RouteAtBooking(params.Hour, location), nil
	case "booking-curves":
		return BookingCurves(params.Filter), nil
	case "days-to-departure":
		return DaysToDeparture(params.Filter), nil
	default:
		return Request{}, fmt.Errorf("unknown preset %q", name)
	}
}
