package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"flyhigh/internal/timeseries"
)

var Header = []string{
	"group",
	"flightId",
	"flightIdUnique",
	"departureDate",
	"departure",
	"arrival",
	"observedAt",
	"timeToDepartureDays",
	"price",
}

// DayIndex is the whole number of days left before departure rounded up, the last
// day before departure is day 1.
func DayIndex(daysRemaining float64) int {
	return int(math.Ceil(daysRemaining))
}

// WriteCSV writes one row per point of every series. Timestamps are RFC 3339 and
// unknown prices are left empty.
func WriteCSV(w io.Writer, result timeseries.Result) error {
	out := csv.NewWriter(w)
	err := out.Write(Header)
	if err != nil {
		return err
	}

	for _, series := range result.Series {
		for _, point := range series.Points {
			o := point.Observation
			price := ""
			if amount, known := o.Price.Amount(); known {
				price = strconv.FormatInt(amount, 10)
			}
			err := out.Write([]string{
				series.Key,
				o.FlightID,
				o.UniqueFlightID(),
				o.DepartureDate.Format(time.DateOnly),
				o.Departure.Format(time.RFC3339),
				o.Arrival.Format(time.RFC3339),
				o.ObservedAt.Format(time.RFC3339),
				strconv.Itoa(DayIndex(point.DaysRemaining)),
				price,
			})
			if err != nil {
				return err
			}
		}
	}

	out.Flush()
	return out.Error()
}
