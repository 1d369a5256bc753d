package pipeline

import (
	"errors"
	"fmt"
	"time"

	"flyhigh/internal/offer"
)

// Stage is the step of a date's pass that failed.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageParse  Stage = "parse"
	StageAppend Stage = "append"
)

// DateError is a failure that made the pipeline skip one departure date.
type DateError struct {
	Date  time.Time
	Stage Stage
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Date.Format(time.DateOnly), e.Stage, e.Err)
}

func (e *DateError) Unwrap() error {
	return e.Err
}

// DateResult is the outcome of one departure date.
type DateResult struct {
	Date       time.Time
	ObservedAt time.Time
	// Fragments is the number of result items found in the document, Extracted and
	// Normalized count the ones that made it through each step.
	Fragments  int
	Extracted  int
	Normalized int
	Written    int
	// FragmentErrors holds every fragment failure, they never fail the date.
	FragmentErrors []error
	Err            error
}

func (r DateResult) Failed() bool {
	return r.Err != nil
}

func (r *DateResult) fail(stage Stage, err error) {
	r.Err = &DateError{Date: r.Date, Stage: stage, Err: err}
}

func (r *DateResult) addExtraction(report offer.ExtractionReport) {
	r.Fragments = report.Total
	r.Extracted = report.Extracted()
	for _, f := range report.Failures {
		r.FragmentErrors = append(r.FragmentErrors, f)
	}
}

// RunReport lists every attempted date of a run in order.
type RunReport struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Results  []DateResult
}

func (r RunReport) Failed() []DateResult {
	var failed []DateResult
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r RunReport) Written() int {
	total := 0
	for _, res := range r.Results {
		total += res.Written
	}
	return total
}

// Err joins the error of every failed date, it is nil if no date failed.
func (r RunReport) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}
