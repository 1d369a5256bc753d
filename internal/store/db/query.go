package db

import (
	"context"
	"database/sql"
	"strings"
)

const insertObservation = `
insert into observations (
    flight_id, departure_date, departure, arrival, duration, price, observed_at
) values (?, ?, ?, ?, ?, ?, ?)
returning id
`

type InsertObservationParams struct {
	FlightID      string
	DepartureDate string
	Departure     int64
	Arrival       int64
	Duration      sql.NullString
	Price         sql.NullInt64
	ObservedAt    int64
}

func (q *Queries) InsertObservation(ctx context.Context, arg InsertObservationParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertObservation,
		arg.FlightID,
		arg.DepartureDate,
		arg.Departure,
		arg.Arrival,
		arg.Duration,
		arg.Price,
		arg.ObservedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const countObservations = `select count(*) from observations`

func (q *Queries) CountObservations(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countObservations)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const selectObservations = `
select id, flight_id, departure_date, departure, arrival, duration, price, observed_at
from observations
`

// SelectObservationsParams are optional constraints, an invalid field is not part of
// the where clause. Date bounds are inclusive, observed_at bounds are half-open.
type SelectObservationsParams struct {
	FlightID      sql.NullString
	DepartureFrom sql.NullString
	DepartureTo   sql.NullString
	ObservedFrom  sql.NullInt64
	ObservedTo    sql.NullInt64
}

func (arg SelectObservationsParams) where() (string, []any) {
	var clauses []string
	var args []any
	if arg.FlightID.Valid {
		clauses = append(clauses, "flight_id = ?")
		args = append(args, arg.FlightID.String)
	}
	if arg.DepartureFrom.Valid {
		clauses = append(clauses, "departure_date >= ?")
		args = append(args, arg.DepartureFrom.String)
	}
	if arg.DepartureTo.Valid {
		clauses = append(clauses, "departure_date <= ?")
		args = append(args, arg.DepartureTo.String)
	}
	if arg.ObservedFrom.Valid {
		clauses = append(clauses, "observed_at >= ?")
		args = append(args, arg.ObservedFrom.Int64)
	}
	if arg.ObservedTo.Valid {
		clauses = append(clauses, "observed_at < ?")
		args = append(args, arg.ObservedTo.Int64)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "where " + strings.Join(clauses, " and ") + "\n", args
}

func (q *Queries) SelectObservations(ctx context.Context, arg SelectObservationsParams) ([]Observation, error) {
	where, args := arg.where()
	rows, err := q.db.QueryContext(ctx, selectObservations+where+"order by id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Observation
	for rows.Next() {
		var i Observation
		if err := rows.Scan(
			&i.ID,
			&i.FlightID,
			&i.DepartureDate,
			&i.Departure,
			&i.Arrival,
			&i.Duration,
			&i.Price,
			&i.ObservedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
