package offer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"flyhigh/internal/components/chrono"
	"flyhigh/internal/observation"
	"flyhigh/lib/htmlutil"
)

var ErrNormalization = errors.New("normalization failure")

// NormalizationError is the failure to turn one fragment into an observation.
type NormalizationError struct {
	Index    int
	FlightID string
	// Field is the fragment field that could not be converted.
	Field string
	Text  string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf(
		"normalize fragment %d (flight %q): %s %q: %v",
		e.Index, e.FlightID, e.Field, e.Text, e.Err,
	)
}

func (e *NormalizationError) Unwrap() []error {
	return []error{ErrNormalization, e.Err}
}

// separators: en dash, em dash, minus sign, hyphen
const rangeSeparators = "–—−-"

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp][Mm])?\s*(?:\+\s*\d+)?$`)

type clock struct {
	hour   int
	minute int
}

func (c clock) minutes() int {
	return c.hour*60 + c.minute
}

func parseClock(text string) (clock, error) {
	match := clockPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return clock{}, fmt.Errorf("not a clock time: %q", text)
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if minute > 59 {
		return clock{}, fmt.Errorf("minute out of range: %q", text)
	}

	switch strings.ToLower(match[3]) {
	case "":
		if hour > 23 {
			return clock{}, fmt.Errorf("hour out of range: %q", text)
		}
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return clock{}, fmt.Errorf("hour out of range: %q", text)
		}
		hour %= 12
		if strings.ToLower(match[3]) == "pm" {
			hour += 12
		}
	}
	return clock{hour: hour, minute: minute}, nil
}

// parseTimeRange splits "HH:MM – HH:MM" into its two clock times.
func parseTimeRange(text string) (clock, clock, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(rangeSeparators, r)
	})
	if len(parts) != 2 {
		return clock{}, clock{}, fmt.Errorf("expected 2 clock times, got %d", len(parts))
	}
	departure, err := parseClock(parts[0])
	if err != nil {
		return clock{}, clock{}, err
	}
	arrival, err := parseClock(parts[1])
	if err != nil {
		return clock{}, clock{}, err
	}
	return departure, arrival, nil
}

// ParsePrice concatenates every digit of `text`, text without digits is an unknown
// price.
func ParsePrice(text string) (observation.Price, error) {
	digits := strings.Builder{}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return observation.Unknown, nil
	}
	amount, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return observation.Unknown, err
	}
	return observation.KnownPrice(amount), nil
}

// Normalizer converts fragments into observations, clock times are interpreted in
// the location of the fare source.
type Normalizer struct {
	location *time.Location
}

func NewNormalizer(location *time.Location) Normalizer {
	if location == nil {
		location = time.UTC
	}
	return Normalizer{location: location}
}

// Normalize converts a fragment found while searching `departureDate` in a fetch
// pass at `observedAt`. An arrival clock time earlier than the departure clock time
// is taken to be on the next day.
func (n Normalizer) Normalize(fragment RawFragment, departureDate, observedAt time.Time) (observation.Observation, error) {
	fail := func(field, text string, err error) (observation.Observation, error) {
		return observation.Observation{}, &NormalizationError{
			Index:    fragment.Index,
			FlightID: fragment.FlightID,
			Field:    field,
			Text:     text,
			Err:      err,
		}
	}

	if fragment.FlightID == "" {
		return fail("flight id", "", ErrMissingAttribute)
	}

	times := htmlutil.CleanText(fragment.Times)
	depart, arrive, err := parseTimeRange(times)
	if err != nil {
		return fail("times", times, err)
	}

	date := chrono.Date(departureDate, n.location)
	departure := time.Date(date.Year(), date.Month(), date.Day(), depart.hour, depart.minute, 0, 0, n.location)
	arrivalDay := date.Day()
	if arrive.minutes() < depart.minutes() {
		arrivalDay++
	}
	arrival := time.Date(date.Year(), date.Month(), arrivalDay, arrive.hour, arrive.minute, 0, 0, n.location)

	price := observation.Unknown
	if fragment.HasPrice {
		price, err = ParsePrice(fragment.Price)
		if err != nil {
			return fail("price", fragment.Price, err)
		}
	}

	duration := ""
	if fragment.HasDuration {
		duration = htmlutil.CleanText(fragment.Duration)
	}

	o := observation.Observation{
		FlightID:      fragment.FlightID,
		DepartureDate: date,
		Departure:     departure,
		Arrival:       arrival,
		Duration:      duration,
		Price:         price,
		ObservedAt:    observedAt,
	}
	err = o.Validate()
	if err != nil {
		return fail("observation", times, err)
	}
	return o, nil
}

// NormalizeAll normalizes every fragment of one fetch pass, failed fragments are
// left out of the returned observations.
func (n Normalizer) NormalizeAll(fragments []RawFragment, departureDate, observedAt time.Time) ([]observation.Observation, []*NormalizationError) {
	var observations []observation.Observation
	var failures []*NormalizationError
	for _, fragment := range fragments {
		o, err := n.Normalize(fragment, departureDate, observedAt)
		if err != nil {
			var normErr *NormalizationError
			if errors.As(err, &normErr) {
				failures = append(failures, normErr)
			}
			continue
		}
		observations = append(observations, o)
	}
	return observations, failures
}
