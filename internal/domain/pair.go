package domain

import (
	"strings"
)

// QuoteIDR is the settlement currency every pair in this system quotes in.
const QuoteIDR = "idr"

// Pair is a trading pair in Indodax canonical form: "base_quote", lowercase
// (e.g. "btc_idr", "sol_idr").
type Pair struct {
	Base  string
	Quote string
}

func NewPair(base, quote string) Pair {
	return Pair{Base: strings.ToLower(base), Quote: strings.ToLower(quote)}
}

// ParsePair parses a canonical pair string. It validates shape only; whether
// the pair is actually listed is decided by the exchange.
func ParsePair(s string) (Pair, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, &ValidationError{Field: "pair", Reason: "must be base_quote, e.g. btc_idr"}
	}
	return Pair{Base: parts[0], Quote: parts[1]}, nil
}

func (p Pair) String() string {
	return p.Base + "_" + p.Quote
}

func (p Pair) IsZero() bool {
	return p.Base == "" || p.Quote == ""
}

// PairInfo describes a market listed on the exchange.
type PairInfo struct {
	ID           string  // canonical pair id, e.g. "btc_idr"
	Base         string  // traded currency
	Quote        string  // settlement currency
	MinQuoteSize float64 // minimum order value in the quote currency
}
