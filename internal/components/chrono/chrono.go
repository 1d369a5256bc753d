package chrono

import (
	"fmt"
	"time"
)

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in Location().
	Now() time.Time
	// Location is the time zone of the fare source, calendar dates and
	// booking-time buckets are all interpreted in it.
	Location() *time.Location
}

// StandardImpl is the standard implementation of API using the standard library.
type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl loads the location with the given IANA name, an empty name
// means UTC.
func NewStandardImpl(name string) (StandardImpl, error) {
	location, err := LoadLocation(name)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return location, nil
}

// Date returns midnight of the calendar day of `t` (as seen in t's own location)
// in `location`.
func Date(t time.Time, location *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location)
}

// ParseDate parses a YYYY-MM-DD date in `location`.
func ParseDate(text string, location *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, text, location)
}

// Days returns every calendar day from `from` to `to` inclusive, stepping one day
// at a time. It returns nil if `to` is before `from`.
func Days(from, to time.Time) []time.Time {
	location := from.Location()
	current := Date(from, location)
	last := Date(to.In(location), location)

	var days []time.Time
	for !current.After(last) {
		days = append(days, current)
		current = time.Date(current.Year(), current.Month(), current.Day()+1, 0, 0, 0, 0, location)
	}
	return days
}

// TruncateHour returns the start of the hour `t` falls in, in `location`.
func TruncateHour(t time.Time, location *time.Location) time.Time {
	t = t.In(location)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, location)
}

// TruncateDay returns the start of the day `t` falls in, in `location`.
func TruncateDay(t time.Time, location *time.Location) time.Time {
	return Date(t.In(location), location)
}
