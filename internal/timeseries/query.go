package timeseries

import (
	"cmp"
	"context"
	"slices"
	"time"

	"flyhigh/internal/observation"
	"flyhigh/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("flyhigh/internal/timeseries")

// Source is the read side of the observation store.
type Source interface {
	Select(ctx context.Context, filter store.Filter) ([]observation.Observation, error)
}

type Options struct {
	X Axis
	// SkipUnknown leaves observations with an unknown price out of the series.
	SkipUnknown bool
}

type Request struct {
	Filter  store.Filter
	GroupBy GroupBy
	Options Options
}

// Point is one (x, y) value of a series, y is the price.
type Point struct {
	// X is unix seconds of Time, or fractional days for AxisDaysRemaining.
	X             float64
	Time          time.Time
	DaysRemaining float64
	Price         observation.Price
	Observation   observation.Observation
}

type Series struct {
	Key    string
	Points []Point
}

type Result struct {
	GroupBy GroupBy
	// X is the resolved axis, it is never AxisAuto.
	X      Axis
	Series []Series
}

// Map returns the series keyed by their group key.
func (r Result) Map() map[string]Series {
	out := make(map[string]Series, len(r.Series))
	for _, s := range r.Series {
		out[s.Key] = s
	}
	return out
}

// Querier reconstructs price series from stored observations. It never writes.
type Querier struct {
	source   Source
	location *time.Location
}

func NewQuerier(source Source, location *time.Location) Querier {
	if location == nil {
		location = time.UTC
	}
	return Querier{source: source, location: location}
}

func (q Querier) Query(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "Query")
	defer span.End()
	span.SetAttributes(attribute.String("group_by", req.GroupBy.String()))

	observations, err := q.source.Select(ctx, req.Filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	axis := req.Options.X
	if axis == AxisAuto {
		axis = req.GroupBy.complementary()
	}

	groups := map[string][]Point{}
	for _, o := range observations {
		if req.Options.SkipUnknown && !o.Price.Known() {
			continue
		}
		key := req.GroupBy.key(o, q.location)
		groups[key] = append(groups[key], axis.point(o))
	}

	result := Result{
		GroupBy: req.GroupBy,
		X:       axis,
		Series:  make([]Series, 0, len(groups)),
	}
	for key, points := range groups {
		slices.SortStableFunc(points, func(a, b Point) int {
			return cmp.Or(
				cmp.Compare(a.X, b.X),
				cmp.Compare(a.Observation.ID, b.Observation.ID),
			)
		})
		result.Series = append(result.Series, Series{Key: key, Points: points})
	}
	slices.SortFunc(result.Series, func(a, b Series) int {
		return cmp.Compare(a.Key, b.Key)
	})

	span.SetAttributes(attribute.Int("series", len(result.Series)))
	return result, nil
}
