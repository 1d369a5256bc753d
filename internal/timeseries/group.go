package timeseries

import (
	"fmt"
	"time"

	"flyhigh/internal/components/chrono"
	"flyhigh/internal/observation"
)

// GroupBy is the key series are partitioned by.
type GroupBy int

const (
	ByFlight GroupBy = iota
	ByDepartureDate
	ByBookingHour
	ByBookingDay
	ByDepartureDateFlight
)

var groupByNames = map[GroupBy]string{
	ByFlight:              "flight",
	ByDepartureDate:       "departure_date",
	ByBookingHour:         "booking_hour",
	ByBookingDay:          "booking_day",
	ByDepartureDateFlight: "departure_date+flight",
}

func (g GroupBy) String() string {
	name, ok := groupByNames[g]
	if !ok {
		return fmt.Sprintf("GroupBy(%d)", int(g))
	}
	return name
}

func ParseGroupBy(name string) (GroupBy, error) {
	for g, n := range groupByNames {
		if n == name {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown grouping %q", name)
}

// key returns the group an observation belongs to, booking buckets are truncated
// in `location`.
func (g GroupBy) key(o observation.Observation, location *time.Location) string {
	switch g {
	case ByDepartureDate:
		return o.DepartureDate.Format(time.DateOnly)
	case ByBookingHour:
		return chrono.TruncateHour(o.ObservedAt, location).Format("2006-01-02 15")
	case ByBookingDay:
		return chrono.TruncateDay(o.ObservedAt, location).Format(time.DateOnly)
	case ByDepartureDateFlight:
		return o.UniqueFlightID()
	default:
		return o.FlightID
	}
}

// Axis is what the x value of a point measures.
type Axis int

const (
	// AxisAuto picks the axis complementary to the grouping.
	AxisAuto Axis = iota
	AxisDeparture
	AxisDepartureDate
	AxisObservedAt
	AxisDaysRemaining
)

var axisNames = map[Axis]string{
	AxisAuto:          "auto",
	AxisDeparture:     "departure",
	AxisDepartureDate: "departure_date",
	AxisObservedAt:    "observed_at",
	AxisDaysRemaining: "days_remaining",
}

func (a Axis) String() string {
	name, ok := axisNames[a]
	if !ok {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return name
}

func ParseAxis(name string) (Axis, error) {
	for a, n := range axisNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q", name)
}

// complementary is the axis series of a grouping are ordered along by default:
// booking buckets vary over departure, everything else varies over booking time.
func (g GroupBy) complementary() Axis {
	switch g {
	case ByBookingHour, ByBookingDay:
		return AxisDeparture
	default:
		return AxisObservedAt
	}
}

// IsTime is false for axes whose x value is not unix seconds.
func (a Axis) IsTime() bool {
	return a != AxisDaysRemaining
}

func (a Axis) point(o observation.Observation) Point {
	p := Point{
		DaysRemaining: o.DaysRemaining(),
		Price:         o.Price,
		Observation:   o,
	}
	switch a {
	case AxisDeparture:
		p.Time = o.Departure
	case AxisDepartureDate:
		p.Time = o.DepartureDate
	case AxisDaysRemaining:
		p.X = p.DaysRemaining
		return p
	default:
		p.Time = o.ObservedAt
	}
	p.X = float64(p.Time.Unix())
	return p
}
