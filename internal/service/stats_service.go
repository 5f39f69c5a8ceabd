package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/repository"
)

// StatsService recomputes and serves per-account aggregates. Recomputation
// runs through the reconciler, so override-adjusted net P&L is what the
// aggregates see.
type StatsService struct {
	tradeService *TradeService
	statsRepo    *repository.StatsRepository
}

// NewStatsService creates a new StatsService
func NewStatsService(tradeService *TradeService, statsRepo *repository.StatsRepository) *StatsService {
	return &StatsService{tradeService: tradeService, statsRepo: statsRepo}
}

// Recompute rebuilds the stats rows for both methods of one account.
func (s *StatsService) Recompute(accountID string) error {
	for _, method := range []models.CalcMethod{models.CalcMethodFIFO, models.CalcMethodPerPosition} {
		trades, open, err := s.tradeService.ComputeTrades(accountID, method, "")
		if err != nil {
			return err
		}
		if err := s.statsRepo.Upsert(aggregate(accountID, method, trades, open)); err != nil {
			return err
		}
	}
	return nil
}

// StatsFor returns the stored aggregates for an account.
func (s *StatsService) StatsFor(accountID string) ([]models.AccountStats, error) {
	return s.statsRepo.GetByAccountID(accountID)
}

func aggregate(accountID string, method models.CalcMethod, trades []models.MatchedTrade, open []models.OpenPosition) *models.AccountStats {
	stats := &models.AccountStats{
		AccountID:    accountID,
		Method:       method,
		TradeCount:   len(trades),
		OpenCount:    len(open),
		GrossPL:      decimal.Zero,
		NetPL:        decimal.Zero,
		TotalFees:    decimal.Zero,
		RecomputedAt: time.Now().UTC(),
	}
	for _, tr := range trades {
		stats.GrossPL = stats.GrossPL.Add(tr.GrossPL)
		stats.NetPL = stats.NetPL.Add(tr.NetPL)
		stats.TotalFees = stats.TotalFees.Add(tr.TotalFee)
		if tr.NetPL.IsPositive() {
			stats.WinCount++
		} else if tr.NetPL.IsNegative() {
			stats.LossCount++
		}
	}
	return stats
}
