package models

import (
	"database/sql/driver"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Price is a non-negative amount with two decimal places, held in cents.
type Price int64

const priceExp = -2

var (
	ErrInvalidPrice = errors.New("a valid number with at most 2 decimal places is required")

	maxPrice = decimal.New(1<<62, priceExp)
)

// ParsePrice parses decimals such as "12", "12.5" or "12.50". Negative
// amounts and more than two decimal places are rejected.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidPrice
	}
	return FromDecimal(d)
}

// FromDecimal converts d to cents.
func FromDecimal(d decimal.Decimal) (Price, error) {
	if d.IsNegative() || d.Exponent() < priceExp || d.GreaterThan(maxPrice) {
		return 0, ErrInvalidPrice
	}
	return Price(d.Shift(-priceExp).IntPart()), nil
}

func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), priceExp)
}

func (p Price) String() string {
	return p.Decimal().StringFixed(-priceExp)
}

// MarshalJSON encodes the price as a decimal string, e.g. "5.00".
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON accepts both a JSON number and a decimal string.
func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidPrice
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Value stores the price as integer cents.
func (p Price) Value() (driver.Value, error) {
	return int64(p), nil
}

func (p *Price) Scan(src interface{}) error {
	if src == nil {
		*p = 0
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return errors.Wrap(err, "scan price")
	}
	*p = Price(d.IntPart())
	return nil
}
