package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is an exact fixed-point price in integer ticks. One tick is
// 1/PriceScale of the quote unit, so prices compare, hash, and map-key
// like plain integers. Floating point is never used for prices: two
// equal decimal inputs must produce the same Price and the same hash.
type Price int64

const (
	// PriceScale is the number of ticks per whole quote unit (10^priceDecimals).
	PriceScale = 10_000

	priceDecimals = 4
)

var priceScaleDec = decimal.New(PriceScale, 0)

// ParsePrice parses a decimal string ("101.25") into ticks.
// Inputs that are negative or finer than one tick are rejected with
// ErrInvalidPrice - there is no silent truncation or rounding.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidPrice, s)
	}
	return PriceFromDecimal(d)
}

// PriceFromDecimal converts an exact decimal value into ticks.
func PriceFromDecimal(d decimal.Decimal) (Price, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative price %s", ErrInvalidPrice, d)
	}
	ticks := d.Mul(priceScaleDec)
	if !ticks.IsInteger() {
		return 0, fmt.Errorf("%w: %s is finer than tick size 1/%d", ErrInvalidPrice, d, PriceScale)
	}
	if !ticks.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s overflows the tick range", ErrInvalidPrice, d)
	}
	return Price(ticks.IntPart()), nil
}

// MustParsePrice is ParsePrice for static inputs; it panics on error.
func MustParsePrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the exact decimal value of the price.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -priceDecimals)
}

func (p Price) String() string {
	return p.Decimal().String()
}
