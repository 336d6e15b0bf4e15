package domain

import "time"

// Trade is a historical fill reported by the exchange. Immutable.
type Trade struct {
	TradeID     string
	OrderID     string
	Pair        Pair
	Side        Side
	Price       float64 // quote per unit of base
	BaseAmount  float64
	QuoteAmount float64 // Price * BaseAmount as reported
	FeeQuote    float64 // fee in the quote currency
	Time        time.Time
}

// Balance is the exchange-reported holding of one asset.
type Balance struct {
	Asset     string
	Available float64
	Hold      float64 // locked in open orders
}

// Ticker is the public market snapshot for a pair. Buy is the best bid,
// Sell the best ask, matching the exchange's field names.
type Ticker struct {
	Pair       Pair
	Last       float64
	Buy        float64
	Sell       float64
	High       float64
	Low        float64
	VolumeIDR  float64
	ServerTime time.Time
}
