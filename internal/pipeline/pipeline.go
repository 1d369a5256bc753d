package pipeline

import (
	"context"
	"fmt"
	"time"

	"flyhigh/internal/archive"
	"flyhigh/internal/components/assert"
	"flyhigh/internal/components/chrono"
	"flyhigh/internal/components/telemetry"
	"flyhigh/internal/fetch"
	"flyhigh/internal/observation"
	"flyhigh/internal/offer"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("flyhigh/internal/pipeline")
var meter = otel.Meter("flyhigh/internal/pipeline")

var writtenCounter, _ = meter.Int64Counter("observations_written")
var fragmentFailureCounter, _ = meter.Int64Counter("fragments_failed")
var dateFailureCounter, _ = meter.Int64Counter("dates_failed")

const (
	report_date_failed      = "date"
	report_fragment_dropped = "fragment"
	report_archive          = "archive"
	report_run_written      = "run-written"
)

// Appender is the write side of the observation store.
type Appender interface {
	Append(ctx context.Context, observations []observation.Observation) (int, error)
}

// Archive keeps fetched documents for replay.
type Archive interface {
	Put(ctx context.Context, doc archive.Document) error
	MarkIngested(ctx context.Context, date string, observedAt time.Time) error
}

// Route is the single searched route.
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Currency    string `json:"currency"`
}

type Options struct {
	Route Route
	// Fetcher may be nil for a pipeline that only replays archived documents.
	Fetcher    fetch.Fetcher
	Extractor  offer.Extractor
	Normalizer offer.Normalizer
	Store      Appender
	// Archive is optional.
	Archive   Archive
	Clock     chrono.API
	Telemetry telemetry.API
}

// Pipeline runs fetch, extract, normalize and append for one departure date at a
// time. It is not safe for concurrent use, there is a single writer.
type Pipeline struct {
	route      Route
	fetcher    fetch.Fetcher
	extractor  offer.Extractor
	normalizer offer.Normalizer
	store      Appender
	archive    Archive
	clock      chrono.API
	tel        telemetry.API
}

func New(opts Options) Pipeline {
	assert.NotNil(opts.Store)
	assert.NotNil(opts.Clock)

	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	if opts.Extractor == (offer.Extractor{}) {
		opts.Extractor = offer.NewExtractor(offer.Selectors{}, tel)
	}
	if opts.Normalizer == (offer.Normalizer{}) {
		opts.Normalizer = offer.NewNormalizer(opts.Clock.Location())
	}
	return Pipeline{
		route:      opts.Route,
		fetcher:    opts.Fetcher,
		extractor:  opts.Extractor,
		normalizer: opts.Normalizer,
		store:      opts.Store,
		archive:    opts.Archive,
		clock:      opts.Clock,
		tel:        telemetry.NewScopedAPI("pipeline", tel),
	}
}

// Run processes every date from `from` to `to` inclusive, in order. A failed date is
// recorded and the run moves on, a cancelled context stops the run before the next
// date.
func (p Pipeline) Run(ctx context.Context, from, to time.Time) RunReport {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	report := RunReport{
		ID:      uuid.NewString(),
		Started: p.clock.Now(),
	}
	span.SetAttributes(attribute.String("run_id", report.ID))

	location := p.clock.Location()
	for _, date := range chrono.Days(chrono.Date(from, location), chrono.Date(to, location)) {
		if ctx.Err() != nil {
			break
		}
		report.Results = append(report.Results, p.RunDate(ctx, date))
	}
	report.Finished = p.clock.Now()

	written := report.Written()
	p.tel.ReportCount(report_run_written, int64(written))
	if failed := len(report.Failed()); failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d dates failed", failed))
	}
	return report
}

// RunDate fetches and ingests a single departure date.
func (p Pipeline) RunDate(ctx context.Context, date time.Time) DateResult {
	ctx, span := tracer.Start(ctx, "RunDate")
	defer span.End()

	date = chrono.Date(date, p.clock.Location())
	dateText := date.Format(time.DateOnly)
	span.SetAttributes(attribute.String("date", dateText))

	contents, err := p.fetch(ctx, date)
	// every observation of this pass shares the time the document was obtained
	observedAt := p.clock.Now()
	if err != nil {
		result := DateResult{Date: date, ObservedAt: observedAt}
		result.fail(StageFetch, err)
		p.failed(ctx, result)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result
	}

	if p.archive != nil {
		err := p.archive.Put(ctx, archive.Document{
			Date:       dateText,
			ObservedAt: observedAt,
			Contents:   contents,
		})
		if err != nil {
			p.tel.ReportWarning(report_archive, dateText, err)
		}
	}

	result := p.Ingest(ctx, date, observedAt, contents)
	if result.Failed() {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}
	return result
}

func (p Pipeline) fetch(ctx context.Context, date time.Time) (string, error) {
	if p.fetcher == nil {
		return "", fmt.Errorf("%w: no fetcher configured", fetch.ErrFetchFailed)
	}
	return p.fetcher.Fetch(ctx, fetch.Query{
		Origin:      p.route.Origin,
		Destination: p.route.Destination,
		Date:        date,
		Currency:    p.route.Currency,
	})
}

// Ingest extracts, normalizes and appends one document fetched for `date` at
// `observedAt`. All observations of the document are appended in a single batch.
func (p Pipeline) Ingest(ctx context.Context, date, observedAt time.Time, contents string) DateResult {
	date = chrono.Date(date, p.clock.Location())
	result := DateResult{Date: date, ObservedAt: observedAt}
	dateText := date.Format(time.DateOnly)

	seq, err := p.extractor.ExtractHTML(ctx, contents)
	if err != nil {
		result.fail(StageParse, err)
		p.failed(ctx, result)
		return result
	}
	fragments, extraction, err := offer.Collect(seq)
	result.addExtraction(extraction)
	if err != nil {
		result.fail(StageParse, err)
		p.failed(ctx, result)
		return result
	}

	observations, failures := p.normalizer.NormalizeAll(fragments, date, observedAt)
	result.Normalized = len(observations)
	for _, f := range failures {
		p.tel.ReportWarning(report_fragment_dropped, dateText, f)
		result.FragmentErrors = append(result.FragmentErrors, f)
	}
	if n := len(result.FragmentErrors); n > 0 {
		fragmentFailureCounter.Add(ctx, int64(n))
	}

	written, err := p.store.Append(ctx, observations)
	if err != nil {
		result.fail(StageAppend, err)
		p.failed(ctx, result)
		return result
	}
	result.Written = written
	writtenCounter.Add(ctx, int64(written))

	if p.archive != nil {
		err := p.archive.MarkIngested(ctx, dateText, observedAt)
		if err != nil {
			p.tel.ReportWarning(report_archive, dateText, err)
		}
	}
	return result
}

// Replay ingests archived documents again, using the fetch time they were archived
// with as their booking time.
func (p Pipeline) Replay(ctx context.Context, docs []archive.Document) RunReport {
	ctx, span := tracer.Start(ctx, "Replay")
	defer span.End()

	report := RunReport{
		ID:      uuid.NewString(),
		Started: p.clock.Now(),
	}
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		date, err := chrono.ParseDate(doc.Date, p.clock.Location())
		if err != nil {
			result := DateResult{ObservedAt: doc.ObservedAt}
			result.fail(StageParse, err)
			p.failed(ctx, result)
			report.Results = append(report.Results, result)
			continue
		}
		report.Results = append(report.Results, p.Ingest(ctx, date, doc.ObservedAt, doc.Contents))
	}
	report.Finished = p.clock.Now()
	p.tel.ReportCount(report_run_written, int64(report.Written()))
	return report
}

func (p Pipeline) failed(ctx context.Context, result DateResult) {
	dateFailureCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", string(result.Err.(*DateError).Stage)),
	))
	p.tel.ReportBroken(report_date_failed, result.Err)
}
