package observation

import (
	"database/sql"
	"strconv"
)

// Price is an optional integer amount in the display unit of the source currency.
// The zero value is Unknown, which is distinct from a known price of 0.
type Price struct {
	amount int64
	known  bool
}

// Unknown is the price of an offer whose price could not be read.
var Unknown = Price{}

func KnownPrice(amount int64) Price {
	return Price{amount: amount, known: true}
}

func (p Price) Known() bool {
	return p.known
}

// Amount returns the price and whether it is known.
func (p Price) Amount() (int64, bool) {
	return p.amount, p.known
}

func (p Price) String() string {
	if !p.known {
		return "unknown"
	}
	return strconv.FormatInt(p.amount, 10)
}

// NullInt64 converts the price to its nullable database representation.
func (p Price) NullInt64() sql.NullInt64 {
	return sql.NullInt64{Int64: p.amount, Valid: p.known}
}

func PriceFromNullInt64(n sql.NullInt64) Price {
	if !n.Valid {
		return Unknown
	}
	return KnownPrice(n.Int64)
}
