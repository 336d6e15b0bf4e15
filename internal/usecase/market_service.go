package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

const tickerAllCacheKey = "ticker_all"

// MarketService serves the display paths (price board, valuations) and keeps
// public API chatter bounded with a short-TTL ticker cache. Live websocket
// ticks overlay the cached snapshot when available. Trading paths never read
// from here; they fetch fresh tickers themselves.
type MarketService struct {
	exchange domain.Exchange
	cache    *ristretto.Cache
	ttl      time.Duration

	mu   sync.RWMutex
	live map[string]float64 // pair -> last, fed by the stream
}

func NewMarketService(exchange domain.Exchange, ttl time.Duration) (*MarketService, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 22,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &MarketService{
		exchange: exchange,
		cache:    cache,
		ttl:      ttl,
		live:     make(map[string]float64),
	}, nil
}

// HandleTick is the stream callback; it overlays the latest traded price.
func (s *MarketService) HandleTick(pair string, last float64) {
	s.mu.Lock()
	s.live[pair] = last
	s.mu.Unlock()
}

// LastPrice returns the freshest known price for a pair: live tick if one
// arrived, otherwise the cached/fetched ticker.
func (s *MarketService) LastPrice(ctx context.Context, pair domain.Pair) (float64, error) {
	s.mu.RLock()
	live, ok := s.live[pair.String()]
	s.mu.RUnlock()
	if ok {
		return live, nil
	}

	tickers, err := s.AllTickers(ctx)
	if err != nil {
		return 0, err
	}
	t, ok := tickers[pair.String()]
	if !ok {
		return 0, &domain.ValidationError{Field: "pair", Reason: "not listed"}
	}
	return t.Last, nil
}

// AllTickers returns the all-pairs snapshot, cached for the configured TTL.
func (s *MarketService) AllTickers(ctx context.Context) (map[string]domain.Ticker, error) {
	if v, ok := s.cache.Get(tickerAllCacheKey); ok {
		if tickers, ok := v.(map[string]domain.Ticker); ok {
			return tickers, nil
		}
	}

	tickers, err := s.exchange.GetAllTickers(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTTL(tickerAllCacheKey, tickers, int64(len(tickers)), s.ttl)
	return tickers, nil
}

// BoardEntry is one row of the frontend price board.
type BoardEntry struct {
	Pair domain.Pair
	Last float64
	Live bool // price came from the websocket overlay
}

// PriceBoard builds the price list for the given pairs, skipping unlisted
// ones, in the order requested.
func (s *MarketService) PriceBoard(ctx context.Context, pairs []domain.Pair) ([]BoardEntry, error) {
	tickers, err := s.AllTickers(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]BoardEntry, 0, len(pairs))
	for _, p := range pairs {
		entry := BoardEntry{Pair: p}
		if live, ok := s.live[p.String()]; ok {
			entry.Last, entry.Live = live, true
		} else if t, ok := tickers[p.String()]; ok {
			entry.Last = t.Last
		} else {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
