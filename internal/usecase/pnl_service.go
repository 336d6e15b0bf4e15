package usecase

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

// PnLService derives realized and unrealized profit-and-loss per asset from
// the exchange's trade history using a running-average cost basis. The
// exchange balance stays the ground truth for what is actually held.
type PnLService struct {
	exchange        domain.Exchange
	logger          *zap.Logger
	feesInCostBasis bool
	historyLimit    int
}

func NewPnLService(exchange domain.Exchange, logger *zap.Logger, feesInCostBasis bool, historyLimit int) *PnLService {
	return &PnLService{
		exchange:        exchange,
		logger:          logger,
		feesInCostBasis: feesInCostBasis,
		historyLimit:    historyLimit,
	}
}

// ComputePnL folds the asset's IDR-settled trade history, oldest first:
// each buy moves the average cost, each sell realizes against it without
// changing it. Sells beyond the tracked history realize against a zero cost
// basis and flag the report instead of failing.
func (s *PnLService) ComputePnL(ctx context.Context, asset string) (*domain.PnLReport, error) {
	if asset == "" {
		return nil, &domain.ValidationError{Field: "asset", Reason: "empty"}
	}

	pair := domain.NewPair(asset, domain.QuoteIDR)
	trades, err := s.exchange.GetTradeHistory(ctx, pair, s.historyLimit)
	if err != nil {
		return nil, err
	}

	report := s.fold(asset, trades)

	ticker, err := s.exchange.GetTicker(ctx, pair)
	if err != nil {
		return nil, err
	}
	report.LastPrice = ticker.Last
	if report.HeldAmount > 0 {
		report.UnrealizedPnL = (ticker.Last - report.AverageCost) * report.HeldAmount
	}
	return report, nil
}

func (s *PnLService) fold(asset string, trades []domain.Trade) *domain.PnLReport {
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	report := &domain.PnLReport{Asset: asset}
	for _, t := range sorted {
		switch t.Side {
		case domain.SideBuy:
			cost := t.QuoteAmount
			if s.feesInCostBasis {
				cost += t.FeeQuote
			} else {
				// Fee stays out of the basis and hits PnL right away.
				report.RealizedPnL -= t.FeeQuote
			}
			newHeld := report.HeldAmount + t.BaseAmount
			if newHeld > 0 {
				report.AverageCost = (report.AverageCost*report.HeldAmount + cost) / newHeld
			}
			report.HeldAmount = newHeld

		case domain.SideSell:
			tracked := t.BaseAmount
			if tracked > report.HeldAmount {
				// History predates tracking: the excess has no cost basis.
				report.UntrackedSells = true
				tracked = report.HeldAmount
			}
			untracked := t.BaseAmount - tracked

			report.RealizedPnL += (t.Price-report.AverageCost)*tracked - t.FeeQuote
			report.RealizedPnL += t.Price * untracked
			report.HeldAmount -= tracked
		}
	}

	if report.HeldAmount == 0 {
		report.AverageCost = 0
	}
	return report
}

// ComputeAll computes PnL for every asset with trade history among the given
// assets; assets whose history fetch fails are skipped with a warning rather
// than aborting the whole report.
func (s *PnLService) ComputeAll(ctx context.Context, assets []string) []*domain.PnLReport {
	var reports []*domain.PnLReport
	for _, asset := range assets {
		report, err := s.ComputePnL(ctx, asset)
		if err != nil {
			s.logger.Warn("pnl computation failed", zap.String("asset", asset), zap.Error(err))
			continue
		}
		if report.RealizedPnL == 0 && report.HeldAmount == 0 && !report.UntrackedSells {
			continue
		}
		reports = append(reports, report)
	}
	return reports
}
