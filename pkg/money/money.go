// Package money holds currency amounts as integer minor units.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var minutesPerHour = decimal.NewFromInt(60)

// Cents is an amount in minor currency units.
type Cents int64

// PriceFor returns minutes × hourlyRate / 60. The division is exact for any
// duration that is a whole number of hours or for rates divisible by the
// fraction denominator; otherwise the sub-cent remainder is rounded half up.
func PriceFor(minutes int, hourlyRate Cents) Cents {
	if minutes <= 0 || hourlyRate <= 0 {
		return 0
	}
	product := int64(minutes) * int64(hourlyRate)
	whole := product / 60
	if rem := product % 60; rem*2 >= 60 {
		whole++
	}
	return Cents(whole)
}

// Hours renders a duration in minutes as a decimal hour string rounded to
// two places, e.g. 90 -> "1.5", 20 -> "0.33".
func Hours(minutes int) string {
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour).Round(2).String()
}

// ParseAmount parses a plain non-negative decimal with at most two places,
// "123", "123.4" or "123.45", into cents. Signs, exponents and bare or
// trailing points are rejected.
func ParseAmount(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if !plainDecimal(s) {
		return 0, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidAmount, s, err)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w %q: more than two decimal places", ErrInvalidAmount, s)
	}

	return Cents(d.Shift(2).IntPart()), nil
}

// plainDecimal accepts digits with at most one interior point.
func plainDecimal(s string) bool {
	whole, frac, hasPoint := strings.Cut(s, ".")
	if whole == "" || (hasPoint && frac == "") {
		return false
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// String renders the amount with two decimals, e.g. 20000 -> "200.00".
func (c Cents) String() string {
	return decimal.New(int64(c), -2).StringFixed(2)
}
