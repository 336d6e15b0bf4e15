package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

func pnlTrade(side domain.Side, price, amount, fee float64, at time.Time) domain.Trade {
	return domain.Trade{
		Pair:        domain.NewPair("sol", "idr"),
		Side:        side,
		Price:       price,
		BaseAmount:  amount,
		QuoteAmount: price * amount,
		FeeQuote:    fee,
		Time:        at,
	}
}

func newPnLFixture(trades []domain.Trade, last float64, feesInCostBasis bool) *PnLService {
	ex := &mockExchange{
		tickers: map[string]domain.Ticker{
			"sol_idr": {Last: last},
		},
		trades: trades,
	}
	return NewPnLService(ex, zap.NewNop(), feesInCostBasis, 1000)
}

func TestPnLRoundTripIsFlat(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newPnLFixture([]domain.Trade{
		pnlTrade(domain.SideBuy, 2500000, 2, 0, base),
		pnlTrade(domain.SideSell, 2500000, 2, 0, base.Add(time.Hour)),
	}, 2500000, true)

	report, err := svc.ComputePnL(context.Background(), "sol")
	require.NoError(t, err)

	assert.Zero(t, report.RealizedPnL, "buying and selling at the same price with no fee nets to zero")
	assert.Zero(t, report.HeldAmount)
	assert.Zero(t, report.AverageCost)
	assert.Zero(t, report.UnrealizedPnL)
	assert.False(t, report.UntrackedSells)
}

func TestPnLAverageCost(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newPnLFixture([]domain.Trade{
		pnlTrade(domain.SideBuy, 100, 1, 0, base),
		pnlTrade(domain.SideBuy, 200, 1, 0, base.Add(time.Minute)),
	}, 150, true)

	report, err := svc.ComputePnL(context.Background(), "sol")
	require.NoError(t, err)

	assert.Equal(t, 2.0, report.HeldAmount)
	assert.InDelta(t, 150.0, report.AverageCost, 1e-9)
	assert.InDelta(t, 0.0, report.UnrealizedPnL, 1e-9)
}

func TestPnLSellRealizesWithoutMovingAverage(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newPnLFixture([]domain.Trade{
		pnlTrade(domain.SideBuy, 100, 1, 0, base),
		pnlTrade(domain.SideBuy, 200, 1, 0, base.Add(time.Minute)),
		pnlTrade(domain.SideSell, 180, 1, 0, base.Add(2*time.Minute)),
	}, 180, true)

	report, err := svc.ComputePnL(context.Background(), "sol")
	require.NoError(t, err)

	assert.InDelta(t, 30.0, report.RealizedPnL, 1e-9, "sell realizes against the 150 average")
	assert.Equal(t, 1.0, report.HeldAmount)
	assert.InDelta(t, 150.0, report.AverageCost, 1e-9, "selling never moves the average")
	assert.InDelta(t, 30.0, report.UnrealizedPnL, 1e-9)
}

func TestPnLTradesFoldedInTimeOrder(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	// Delivered out of order: the fold must sort by time first.
	svc := newPnLFixture([]domain.Trade{
		pnlTrade(domain.SideSell, 180, 1, 0, base.Add(2*time.Minute)),
		pnlTrade(domain.SideBuy, 200, 1, 0, base.Add(time.Minute)),
		pnlTrade(domain.SideBuy, 100, 1, 0, base),
	}, 180, true)

	report, err := svc.ComputePnL(context.Background(), "sol")
	require.NoError(t, err)

	assert.InDelta(t, 30.0, report.RealizedPnL, 1e-9)
	assert.False(t, report.UntrackedSells)
}

func TestPnLUntrackedSell(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newPnLFixture([]domain.Trade{
		pnlTrade(domain.SideBuy, 100, 1, 0, base),
		pnlTrade(domain.SideSell, 120, 3, 0, base.Add(time.Minute)),
	}, 120, true)

	report, err := svc.ComputePnL(context.Background(), "sol")
	require.NoError(t, err)

	assert.True(t, report.UntrackedSells, "selling more than the tracked position flags the report")
	// 1 tracked unit realizes 120-100, 2 untracked units realize at full price.
	assert.InDelta(t, 20.0+2*120.0, report.RealizedPnL, 1e-9)
	assert.Zero(t, report.HeldAmount)
}

func TestPnLFeesInCostBasis(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		pnlTrade(domain.SideBuy, 100, 2, 10, base),
		pnlTrade(domain.SideSell, 110, 1, 5, base.Add(time.Minute)),
	}

	t.Run("fees raise the basis", func(t *testing.T) {
		svc := newPnLFixture(trades, 110, true)
		report, err := svc.ComputePnL(context.Background(), "sol")
		require.NoError(t, err)

		// (100*2 + 10) / 2 = 105 average; sell realizes (110-105)*1 - 5.
		assert.InDelta(t, 105.0, report.AverageCost, 1e-9)
		assert.InDelta(t, 0.0, report.RealizedPnL, 1e-9)
	})

	t.Run("fees hit realized immediately", func(t *testing.T) {
		svc := newPnLFixture(trades, 110, false)
		report, err := svc.ComputePnL(context.Background(), "sol")
		require.NoError(t, err)

		// Basis stays 100; realized is -10 (buy fee) + (110-100)*1 - 5.
		assert.InDelta(t, 100.0, report.AverageCost, 1e-9)
		assert.InDelta(t, -5.0, report.RealizedPnL, 1e-9)
	})
}

func TestPnLUnrealizedFromLastPrice(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newPnLFixture([]domain.Trade{
		pnlTrade(domain.SideBuy, 2500000, 2, 0, base),
	}, 2600000, true)

	report, err := svc.ComputePnL(context.Background(), "sol")
	require.NoError(t, err)

	assert.Equal(t, 2600000.0, report.LastPrice)
	assert.InDelta(t, 200000.0, report.UnrealizedPnL, 1e-9)
}

func TestComputeAllSkipsEmptyAssets(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ex := &mockExchange{
		tickers: map[string]domain.Ticker{
			"sol_idr": {Last: 2600000},
		},
		trades: []domain.Trade{
			pnlTrade(domain.SideBuy, 2500000, 1, 0, base),
		},
	}
	svc := NewPnLService(ex, zap.NewNop(), true, 1000)

	// "btc" has no btc_idr ticker in the fixture, so its report fails and is
	// skipped rather than aborting the run.
	reports := svc.ComputeAll(context.Background(), []string{"sol", "btc"})
	require.Len(t, reports, 1)
	assert.Equal(t, "sol", reports[0].Asset)
}
