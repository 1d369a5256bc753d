package fetch

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("flyhigh/internal/fetch")

var ErrFetchFailed = errors.New("fetch failed")

// DefaultUrlTemplate is the Google Flights one way search for a single date.
const DefaultUrlTemplate = "https://www.google.com/flights#flt={from}.{to}.{date};c:{currency};e:1;s:0;sd:1;t:f;tt:o"

// Query is one search for a single departure date.
type Query struct {
	Origin      string
	Destination string
	// Date is the departure date, only its calendar day is used.
	Date     time.Time
	Currency string
}

// Fetcher returns the rendered results document of a query.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (string, error)
}

// BuildUrl fills the {from}, {to}, {date} and {currency} placeholders of `template`.
func BuildUrl(template string, q Query) string {
	if template == "" {
		template = DefaultUrlTemplate
	}
	r := strings.NewReplacer(
		"{from}", q.Origin,
		"{to}", q.Destination,
		"{date}", q.Date.Format(time.DateOnly),
		"{currency}", q.Currency,
	)
	return r.Replace(template)
}
