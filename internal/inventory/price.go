// ABOUTME: Fixed-point price type stored as integer cents
// ABOUTME: Parses decimal text exactly and renders as a JSON number with two decimals

package inventory

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Price limits: at most 10 integer digits and 2 decimals.
const (
	MaxIntegerDigits  = 10
	MaxFractionDigits = 2
)

// Price errors
var (
	ErrPriceFormat = errors.New("price must be a decimal number")
	ErrPriceDigits = fmt.Errorf("price must have at most %d integer digits and %d decimals", MaxIntegerDigits, MaxFractionDigits)
)

// Price is an amount of money in cents.
type Price int64

// ParsePrice parses decimal text such as "12", "12.5" or "-0.99" without
// going through floating point. Exponents are rejected.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrPriceFormat
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, ErrPriceFormat
	}
	if hasDot && fracPart == "" {
		return 0, ErrPriceFormat
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrPriceFormat
	}

	intPart = strings.TrimLeft(intPart, "0")
	if len(intPart) > MaxIntegerDigits || len(fracPart) > MaxFractionDigits {
		return 0, ErrPriceDigits
	}

	for len(fracPart) < MaxFractionDigits {
		fracPart += "0"
	}

	cents, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceFormat, err)
	}
	if negative {
		cents = -cents
	}
	return Price(cents), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Cents returns the amount in cents.
func (p Price) Cents() int64 {
	return int64(p)
}

// String renders the price with exactly two decimals, e.g. "1299.99".
func (p Price) String() string {
	cents := int64(p)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON encodes the price as a bare JSON number.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Amount is an unbounded sum of money in cents, used for catalogue totals
// that can exceed the range of Price.
type Amount struct {
	cents *big.Int
}

// NewAmount wraps cents; nil is zero.
func NewAmount(cents *big.Int) Amount {
	if cents == nil {
		return Amount{cents: new(big.Int)}
	}
	return Amount{cents: new(big.Int).Set(cents)}
}

// Cents returns a copy of the amount in cents.
func (a Amount) Cents() *big.Int {
	if a.cents == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.cents)
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	cents := a.Cents()
	sign := ""
	if cents.Sign() < 0 {
		sign = "-"
		cents.Neg(cents)
	}
	units, rem := new(big.Int).QuoRem(cents, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s%s.%02d", sign, units.String(), rem.Int64())
}

// MarshalJSON encodes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// Average divides total by count rounding half away from zero to whole
// cents. Returns zero when count is not positive.
func Average(total *big.Int, count int64) Amount {
	if total == nil || count <= 0 {
		return NewAmount(nil)
	}

	n := big.NewInt(count)
	q, r := new(big.Int).QuoRem(total, n, new(big.Int))
	if new(big.Int).Abs(new(big.Int).Lsh(r, 1)).Cmp(n) >= 0 {
		q.Add(q, big.NewInt(int64(total.Sign())))
	}
	return Amount{cents: q}
}
