package domain

import "context"

// Exchange defines the operations the assistant needs from Indodax.
type Exchange interface {
	GetTicker(ctx context.Context, pair Pair) (*Ticker, error)
	GetAllTickers(ctx context.Context) (map[string]Ticker, error)
	GetPairs(ctx context.Context) ([]PairInfo, error)

	GetBalance(ctx context.Context) (map[string]Balance, error)
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	GetOpenOrders(ctx context.Context, pair Pair) ([]Order, error)
	CancelOrder(ctx context.Context, pair Pair, orderID string, side Side) error
	GetTradeHistory(ctx context.Context, pair Pair, limit int) ([]Trade, error)
}

// NonceStore persists the highest issued nonce so a restarted process never
// signs with a value the previous invocation already used.
type NonceStore interface {
	LoadNonce(ctx context.Context) (int64, error)
	SaveNonce(ctx context.Context, nonce int64) error
}

// OrderJournal records orders this assistant placed, for display only.
// The exchange remains authoritative for order state.
type OrderJournal interface {
	SaveOrder(ctx context.Context, order *Order) error
	ListOrders(ctx context.Context, limit int) ([]*Order, error)
}
