package domain

import "time"

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// SizingMode selects which currency an order amount is denominated in.
// Indodax sizes buys in the quote currency (IDR) and sells in the base coin.
type SizingMode string

const (
	SizeByQuote SizingMode = "quote"
	SizeByBase  SizingMode = "base"
)

type OrderStatus string

const (
	StatusOpen            OrderStatus = "open"
	StatusFilled          OrderStatus = "filled"
	StatusPartiallyFilled OrderStatus = "partially-filled"
	StatusCancelled       OrderStatus = "cancelled"
)

// Order is an exchange-side order. It is created on submission and only
// mutated by exchange state transitions observed via re-querying; nothing in
// this process changes an Order locally.
type Order struct {
	ID            string // exchange-assigned
	ClientOrderID string
	Pair          Pair
	Side          Side
	SizingMode    SizingMode
	Amount        float64 // in the sizing currency
	Remaining     float64 // unfilled amount in the sizing currency
	Price         float64 // limit price the order was submitted at
	Status        OrderStatus
	SubmitTime    time.Time
}

// OrderRequest is what the caller asks the exchange to do.
type OrderRequest struct {
	Pair          Pair
	Side          Side
	SizingMode    SizingMode
	Amount        float64
	Price         float64
	ClientOrderID string
}
