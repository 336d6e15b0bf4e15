package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

// OrderService implements the trading operations the chat frontend exposes.
// All validation happens before any network call; balances are always read
// fresh immediately before a sell so we never submit against stale numbers.
type OrderService struct {
	exchange  domain.Exchange
	journal   domain.OrderJournal // optional
	logger    *zap.Logger
	minBuyIDR float64
}

func NewOrderService(exchange domain.Exchange, journal domain.OrderJournal, logger *zap.Logger, minBuyIDR float64) *OrderService {
	return &OrderService{
		exchange:  exchange,
		journal:   journal,
		logger:    logger,
		minBuyIDR: minBuyIDR,
	}
}

func (s *OrderService) GetTicker(ctx context.Context, pair domain.Pair) (*domain.Ticker, error) {
	if pair.IsZero() {
		return nil, &domain.ValidationError{Field: "pair", Reason: "empty"}
	}
	return s.exchange.GetTicker(ctx, pair)
}

// AssetBalance is one row of the balance view, valued in IDR.
type AssetBalance struct {
	Asset     string
	Available float64
	Hold      float64
	ValueIDR  float64
}

// BalanceSummary is the full account view: non-zero holdings plus the total
// valuation in the settlement currency.
type BalanceSummary struct {
	Assets   []AssetBalance
	TotalIDR float64
}

// GetBalance returns all non-zero holdings with their IDR valuation,
// price-weighted from the current all-pairs ticker.
func (s *OrderService) GetBalance(ctx context.Context) (*BalanceSummary, error) {
	balances, err := s.exchange.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	tickers, err := s.exchange.GetAllTickers(ctx)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{}
	for asset, b := range balances {
		total := b.Available + b.Hold
		if total <= 0 {
			continue
		}

		value := 0.0
		if asset == domain.QuoteIDR {
			value = total
		} else if t, ok := tickers[asset+"_"+domain.QuoteIDR]; ok {
			value = total * t.Last
		}

		summary.Assets = append(summary.Assets, AssetBalance{
			Asset:     asset,
			Available: b.Available,
			Hold:      b.Hold,
			ValueIDR:  value,
		})
		summary.TotalIDR += value
	}

	// IDR first, then by descending value.
	sort.Slice(summary.Assets, func(i, j int) bool {
		if summary.Assets[i].Asset == domain.QuoteIDR {
			return true
		}
		if summary.Assets[j].Asset == domain.QuoteIDR {
			return false
		}
		return summary.Assets[i].ValueIDR > summary.Assets[j].ValueIDR
	})
	return summary, nil
}

// PlaceBuy submits a market buy sized in IDR: the order is priced at the
// current ask so it crosses the book immediately.
func (s *OrderService) PlaceBuy(ctx context.Context, pair domain.Pair, quoteAmount float64) (*domain.Order, error) {
	if pair.IsZero() {
		return nil, &domain.ValidationError{Field: "pair", Reason: "empty"}
	}
	if pair.Quote != domain.QuoteIDR {
		return nil, &domain.ValidationError{Field: "pair", Reason: "buys settle in idr only"}
	}
	if quoteAmount <= 0 {
		return nil, &domain.ValidationError{Field: "quoteAmount", Reason: "must be positive"}
	}
	if quoteAmount < s.minBuyIDR {
		return nil, &domain.ValidationError{
			Field:  "quoteAmount",
			Reason: fmt.Sprintf("below exchange minimum of %.0f IDR", s.minBuyIDR),
		}
	}

	ticker, err := s.exchange.GetTicker(ctx, pair)
	if err != nil {
		return nil, err
	}

	order, err := s.exchange.CreateOrder(ctx, domain.OrderRequest{
		Pair:          pair,
		Side:          domain.SideBuy,
		SizingMode:    domain.SizeByQuote,
		Amount:        quoteAmount,
		Price:         ticker.Sell,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	s.journalOrder(ctx, order)
	s.logger.Info("buy submitted",
		zap.String("pair", pair.String()),
		zap.Float64("idr", quoteAmount),
		zap.String("order_id", order.ID))
	return order, nil
}

// BuyAll spends the entire available IDR balance on one asset.
func (s *OrderService) BuyAll(ctx context.Context, asset string) (*domain.Order, error) {
	if asset == "" {
		return nil, &domain.ValidationError{Field: "asset", Reason: "empty"}
	}

	balances, err := s.exchange.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	idr := balances[domain.QuoteIDR].Available
	if idr < s.minBuyIDR {
		return nil, fmt.Errorf("%w: %.0f IDR available, minimum buy is %.0f",
			domain.ErrInsufficientFunds, idr, s.minBuyIDR)
	}

	return s.PlaceBuy(ctx, domain.NewPair(asset, domain.QuoteIDR), idr)
}

// PlaceSell submits a market sell sized in the base coin. The available
// balance is re-read immediately before submission.
func (s *OrderService) PlaceSell(ctx context.Context, pair domain.Pair, baseAmount float64) (*domain.Order, error) {
	if pair.IsZero() {
		return nil, &domain.ValidationError{Field: "pair", Reason: "empty"}
	}
	if baseAmount <= 0 {
		return nil, &domain.ValidationError{Field: "baseAmount", Reason: "must be positive"}
	}

	balances, err := s.exchange.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	if available := balances[pair.Base].Available; baseAmount > available {
		return nil, fmt.Errorf("%w: have %.8f %s, want to sell %.8f",
			domain.ErrInsufficientFunds, available, pair.Base, baseAmount)
	}

	ticker, err := s.exchange.GetTicker(ctx, pair)
	if err != nil {
		return nil, err
	}

	order, err := s.exchange.CreateOrder(ctx, domain.OrderRequest{
		Pair:          pair,
		Side:          domain.SideSell,
		SizingMode:    domain.SizeByBase,
		Amount:        baseAmount,
		Price:         ticker.Buy,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	s.journalOrder(ctx, order)
	s.logger.Info("sell submitted",
		zap.String("pair", pair.String()),
		zap.Float64("amount", baseAmount),
		zap.String("order_id", order.ID))
	return order, nil
}

// SellOutcome is the per-pair result of a SellAll.
type SellOutcome struct {
	Pair  domain.Pair
	Order *domain.Order
	Err   error
}

// SellAllReport aggregates SellAll across pairs. Sells are independent; one
// pair failing does not undo or block the others.
type SellAllReport struct {
	Asset    string
	Amount   float64 // available balance the sells were sized from
	Outcomes []SellOutcome
}

func (r *SellAllReport) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// SellAll liquidates the full available balance of an asset on every listed
// market for it.
func (s *OrderService) SellAll(ctx context.Context, asset string) (*SellAllReport, error) {
	if asset == "" {
		return nil, &domain.ValidationError{Field: "asset", Reason: "empty"}
	}

	balances, err := s.exchange.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	amount := balances[asset].Available
	if amount <= 0 {
		return nil, fmt.Errorf("%w: no %s balance to sell", domain.ErrInsufficientFunds, asset)
	}

	pairs, err := s.exchange.GetPairs(ctx)
	if err != nil {
		return nil, err
	}

	report := &SellAllReport{Asset: asset, Amount: amount}
	for _, info := range pairs {
		if info.Base != asset {
			continue
		}
		pair := domain.NewPair(info.Base, info.Quote)

		outcome := SellOutcome{Pair: pair}
		outcome.Order, outcome.Err = s.sellOnPair(ctx, pair, amount, info.MinQuoteSize)
		if outcome.Err != nil {
			s.logger.Warn("sell-all leg failed",
				zap.String("pair", pair.String()),
				zap.Error(outcome.Err))
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

func (s *OrderService) sellOnPair(ctx context.Context, pair domain.Pair, amount, minQuote float64) (*domain.Order, error) {
	ticker, err := s.exchange.GetTicker(ctx, pair)
	if err != nil {
		return nil, err
	}

	// The exchange rejects orders below the pair's listed minimum value;
	// catch that here instead of burning a request on it.
	if minQuote > 0 && amount*ticker.Buy < minQuote {
		return nil, &domain.ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("value %.0f %s below pair minimum of %.0f", amount*ticker.Buy, pair.Quote, minQuote),
		}
	}

	order, err := s.exchange.CreateOrder(ctx, domain.OrderRequest{
		Pair:          pair,
		Side:          domain.SideSell,
		SizingMode:    domain.SizeByBase,
		Amount:        amount,
		Price:         ticker.Buy,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	s.journalOrder(ctx, order)
	return order, nil
}

// CancelOrder requests cancellation. ErrOrderNotFound means the order already
// resolved; callers may treat that as success.
func (s *OrderService) CancelOrder(ctx context.Context, pair domain.Pair, orderID string, side domain.Side) error {
	if pair.IsZero() {
		return &domain.ValidationError{Field: "pair", Reason: "empty"}
	}
	if orderID == "" {
		return &domain.ValidationError{Field: "orderId", Reason: "empty"}
	}
	if side != domain.SideBuy && side != domain.SideSell {
		return &domain.ValidationError{Field: "side", Reason: "must be buy or sell"}
	}
	return s.exchange.CancelOrder(ctx, pair, orderID, side)
}

// ListOpenOrders returns a pair's open orders, newest first.
func (s *OrderService) ListOpenOrders(ctx context.Context, pair domain.Pair) ([]domain.Order, error) {
	if pair.IsZero() {
		return nil, &domain.ValidationError{Field: "pair", Reason: "empty"}
	}
	orders, err := s.exchange.GetOpenOrders(ctx, pair)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].SubmitTime.After(orders[j].SubmitTime)
	})
	return orders, nil
}

// ListAllOpenOrders returns open orders across every pair, newest first.
func (s *OrderService) ListAllOpenOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.exchange.GetOpenOrders(ctx, domain.Pair{})
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].SubmitTime.After(orders[j].SubmitTime)
	})
	return orders, nil
}

// RecentOrders returns the locally journaled orders, newest first. Without a
// journal there is no history to show.
func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.ListOrders(ctx, limit)
}

func (s *OrderService) journalOrder(ctx context.Context, order *domain.Order) {
	if s.journal == nil {
		return
	}
	if err := s.journal.SaveOrder(ctx, order); err != nil {
		s.logger.Warn("failed to journal order", zap.String("order_id", order.ID), zap.Error(err))
	}
}
