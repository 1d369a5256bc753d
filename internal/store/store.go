package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"flyhigh/internal/components/telemetry"
	"flyhigh/internal/observation"
	"flyhigh/internal/store/db"
	configlibsql "flyhigh/lib/configutil/libsql"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("flyhigh/internal/store")

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrAppendFailed       = errors.New("append failed")
)

const (
	report_append        = "append"
	report_decode        = "decode"
	report_append_count  = "append-count"
	report_append_reject = "append-reject"
)

type Options struct {
	// Location is the time zone departure dates are interpreted in, defaults to UTC.
	Location  *time.Location
	Telemetry telemetry.API
}

// Store is an append-only observation store backed by sqlite or libsql.
type Store struct {
	db       *sql.DB
	qry      *db.Queries
	location *time.Location
	tel      telemetry.API
}

// Open opens the database at `location`, which is a file path, `:memory:` or the url
// of a libsql server, and makes sure the schema exists.
func Open(ctx context.Context, location string, opts Options) (Store, error) {
	return OpenConfig(ctx, configlibsql.FromLocation(location), opts)
}

func OpenConfig(ctx context.Context, config configlibsql.Struct, opts Options) (Store, error) {
	database, err := config.OpenDB()
	if err != nil {
		return Store{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	s, err := New(ctx, database, opts)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return s, nil
}

// New applies the schema to an already opened database.
func New(ctx context.Context, database *sql.DB, opts Options) (Store, error) {
	_, err := database.ExecContext(ctx, db.Schema)
	if err != nil {
		return Store{}, fmt.Errorf("%w: apply schema: %w", ErrStorageUnavailable, err)
	}

	location := opts.Location
	if location == nil {
		location = time.UTC
	}
	var tel telemetry.API = telemetry.SlogAPI{}
	if opts.Telemetry != nil {
		tel = opts.Telemetry
	}

	return Store{
		db:       database,
		qry:      db.New(database),
		location: location,
		tel:      telemetry.NewScopedAPI("store", tel),
	}, nil
}

// Append inserts every observation in one transaction, either all of them become
// visible or none of them do. It returns the number of rows written.
func (s Store) Append(ctx context.Context, observations []observation.Observation) (int, error) {
	ctx, span := tracer.Start(ctx, "Append")
	defer span.End()
	span.SetAttributes(attribute.Int("observations", len(observations)))

	n, err := s.appendTx(ctx, observations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.tel.ReportBroken(report_append, err, len(observations))
		return 0, err
	}
	s.tel.ReportCount(report_append_count, int64(n))
	return n, nil
}

func (s Store) appendTx(ctx context.Context, observations []observation.Observation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", ErrAppendFailed, err)
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	for i, o := range observations {
		err := o.Validate()
		if err != nil {
			s.tel.ReportWarning(report_append_reject, i, err)
			return 0, fmt.Errorf("%w: observation %d: %w", ErrAppendFailed, i, err)
		}
		_, err = txqry.InsertObservation(ctx, s.encode(o))
		if err != nil {
			return 0, fmt.Errorf("%w: observation %d (flight %q): %w", ErrAppendFailed, i, o.FlightID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("%w: commit: %w", ErrAppendFailed, err)
	}
	return len(observations), nil
}

func (s Store) encode(o observation.Observation) db.InsertObservationParams {
	return db.InsertObservationParams{
		FlightID:      o.FlightID,
		DepartureDate: o.DepartureDate.Format(time.DateOnly),
		Departure:     o.Departure.Unix(),
		Arrival:       o.Arrival.Unix(),
		Duration: sql.NullString{
			String: o.Duration,
			Valid:  o.Duration != "",
		},
		Price:      o.Price.NullInt64(),
		ObservedAt: o.ObservedAt.Unix(),
	}
}

func (s Store) decode(row db.Observation) (observation.Observation, error) {
	date, err := time.ParseInLocation(time.DateOnly, row.DepartureDate, s.location)
	if err != nil {
		return observation.Observation{}, err
	}
	return observation.Observation{
		ID:            row.ID,
		FlightID:      row.FlightID,
		DepartureDate: date,
		Departure:     time.Unix(row.Departure, 0).In(s.location),
		Arrival:       time.Unix(row.Arrival, 0).In(s.location),
		Duration:      row.Duration.String,
		Price:         observation.PriceFromNullInt64(row.Price),
		ObservedAt:    time.Unix(row.ObservedAt, 0).In(s.location),
	}, nil
}

// Filter constrains a Select, zero fields are unconstrained.
type Filter struct {
	FlightID string
	// DepartureFrom and DepartureTo are inclusive calendar dates.
	DepartureFrom time.Time
	DepartureTo   time.Time
	// ObservedFrom is inclusive and ObservedTo is exclusive.
	ObservedFrom time.Time
	ObservedTo   time.Time
}

func (s Store) params(f Filter) db.SelectObservationsParams {
	var p db.SelectObservationsParams
	if f.FlightID != "" {
		p.FlightID = sql.NullString{String: f.FlightID, Valid: true}
	}
	if !f.DepartureFrom.IsZero() {
		p.DepartureFrom = sql.NullString{String: f.DepartureFrom.Format(time.DateOnly), Valid: true}
	}
	if !f.DepartureTo.IsZero() {
		p.DepartureTo = sql.NullString{String: f.DepartureTo.Format(time.DateOnly), Valid: true}
	}
	if !f.ObservedFrom.IsZero() {
		p.ObservedFrom = sql.NullInt64{Int64: f.ObservedFrom.Unix(), Valid: true}
	}
	if !f.ObservedTo.IsZero() {
		p.ObservedTo = sql.NullInt64{Int64: f.ObservedTo.Unix(), Valid: true}
	}
	return p
}

// Select returns every observation matching the filter in insertion order.
func (s Store) Select(ctx context.Context, f Filter) ([]observation.Observation, error) {
	ctx, span := tracer.Start(ctx, "Select")
	defer span.End()

	rows, err := s.qry.SelectObservations(ctx, s.params(f))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]observation.Observation, 0, len(rows))
	for _, r := range rows {
		o, err := s.decode(r)
		if err != nil {
			s.tel.ReportBroken(report_decode, err, r.ID)
			continue
		}
		out = append(out, o)
	}
	span.SetAttributes(attribute.Int("observations", len(out)))
	return out, nil
}

func (s Store) Count(ctx context.Context) (int, error) {
	count, err := s.qry.CountObservations(ctx)
	return int(count), err
}

func (s Store) Location() *time.Location {
	return s.location
}

// Close releases the database, it must only be called once every pending Append
// has returned.
func (s Store) Close() error {
	return s.db.Close()
}
