package offer

import (
	"errors"
	"fmt"
)

// RawFragment is one result item found in a search results document. The text fields
// are whitespace normalized but otherwise untouched.
type RawFragment struct {
	// Index is the position of the item in document order.
	Index    int
	FlightID string
	Times    string
	Duration string
	Price    string
	// HasDuration and HasPrice are false when the sub-element is missing entirely,
	// as opposed to present with empty text.
	HasDuration bool
	HasPrice    bool
}

// Selectors locate offers and their fields in a results document.
type Selectors struct {
	Item     string `json:"item"`
	IdAttr   string `json:"id_attr"`
	Times    string `json:"times"`
	Duration string `json:"duration"`
	Price    string `json:"price"`
}

// GoogleFlightsSelectors matches the result list of the Google Flights search page.
var GoogleFlightsSelectors = Selectors{
	Item:     "li.gws-flights-results__result-item",
	IdAttr:   "data-fp",
	Times:    ".gws-flights-results__times",
	Duration: ".gws-flights-results__duration",
	Price:    ".gws-flights-results__price",
}

var (
	ErrExtractionPartialFailure = errors.New("extraction partial failure")
	ErrMissingAttribute         = errors.New("missing attribute")
	ErrMissingElement           = errors.New("missing element")
)

// FragmentError is the failure to extract a single result item.
type FragmentError struct {
	Index int
	// FlightID is empty if the identifier itself could not be read.
	FlightID string
	Err      error
}

func (e *FragmentError) Error() string {
	if e.FlightID == "" {
		return fmt.Sprintf("fragment %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("fragment %d (flight %q): %v", e.Index, e.FlightID, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}

// ExtractionReport summarizes one extraction pass.
type ExtractionReport struct {
	Total    int
	Failures []*FragmentError
}

func (r ExtractionReport) Extracted() int {
	return r.Total - len(r.Failures)
}

// Err returns nil if every fragment was extracted, otherwise an error wrapping
// ErrExtractionPartialFailure and every fragment failure.
func (r ExtractionReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return fmt.Errorf(
		"%w: %d of %d fragments: %w",
		ErrExtractionPartialFailure,
		len(r.Failures),
		r.Total,
		errors.Join(errs...),
	)
}
