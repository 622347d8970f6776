package engine

import (
	"fmt"
	"strings"
)

// TradingPair identifies an instrument by base and quote asset
// ("BTC" quoted in "USDT"). It is only a routing key: it selects which
// order book an operation targets and carries no matching semantics.
type TradingPair struct {
	Base  string
	Quote string
}

// NewPair builds a pair from asset symbols, normalizing to upper case.
func NewPair(base, quote string) (TradingPair, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return TradingPair{}, fmt.Errorf("trading pair needs base and quote, got %q/%q", base, quote)
	}
	return TradingPair{Base: base, Quote: quote}, nil
}

// ParsePair parses a "BASE-QUOTE" symbol such as "BTC-USDT".
func ParsePair(symbol string) (TradingPair, error) {
	base, quote, ok := strings.Cut(symbol, "-")
	if !ok {
		return TradingPair{}, fmt.Errorf("malformed pair symbol %q, want BASE-QUOTE", symbol)
	}
	return NewPair(base, quote)
}

// Symbol renders the canonical "BASE-QUOTE" form.
func (p TradingPair) Symbol() string { return p.Base + "-" + p.Quote }

func (p TradingPair) String() string { return p.Symbol() }
