package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/refdata"
	"github.com/tiltedtrades/trades-api/internal/repository"
)

var ErrEmptyBatch = errors.New("empty execution batch")

// RawFill is one row of a broker export before enrichment.
type RawFill struct {
	ExecutionID string          `json:"execution_id" binding:"required"`
	Symbol      string          `json:"symbol" binding:"required"`
	Side        string          `json:"side" binding:"required"`
	Quantity    int64           `json:"quantity" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	ExecutedAt  time.Time       `json:"executed_at" binding:"required"`
	// TradingDay is the exchange session date; empty falls back to the
	// calendar date of ExecutedAt.
	TradingDay  string `json:"trading_day"`
	Exchange    string `json:"exchange"`
	OrderType   string `json:"order_type"`
	Description string `json:"description"`
}

// RejectedFill reports one row that failed validation. Rejections never
// abort the batch; the remaining rows still import.
type RejectedFill struct {
	Index  int    `json:"index"`
	ID     string `json:"execution_id,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult summarizes one batch import.
type ImportResult struct {
	Imported int            `json:"imported"`
	Rejected []RejectedFill `json:"rejected,omitempty"`
}

// IngestService transforms raw broker fills into enriched executions:
// symbol conversion, commission and notional calculation, trading-day and
// week-number derivation, and running position status bookkeeping.
type IngestService struct {
	execRepo *repository.ExecutionRepository
	tables   *refdata.Tables
}

// NewIngestService creates a new IngestService
func NewIngestService(execRepo *repository.ExecutionRepository, tables *refdata.Tables) *IngestService {
	return &IngestService{execRepo: execRepo, tables: tables}
}

// ImportBatch validates and enriches a batch of raw fills for one account
// and persists the valid ones. Rows with the same execution id as an
// already-stored fill are silently skipped by the storage layer, so
// re-importing an export is safe.
func (s *IngestService) ImportBatch(accountID string, fills []RawFill) (*ImportResult, error) {
	if len(fills) == 0 {
		return nil, ErrEmptyBatch
	}

	result := &ImportResult{}
	positions := make(map[string]int64) // raw symbol -> running position qty
	seen := make(map[string]bool)       // raw symbols already positioned
	var execs []*models.Execution

	for i, fill := range fills {
		if reason := validateFill(fill); reason != "" {
			result.Rejected = append(result.Rejected, RejectedFill{Index: i, ID: fill.ExecutionID, Reason: reason})
			continue
		}

		exec, err := s.enrich(accountID, fill, positions, seen)
		if err != nil {
			result.Rejected = append(result.Rejected, RejectedFill{Index: i, ID: fill.ExecutionID, Reason: err.Error()})
			continue
		}
		execs = append(execs, exec)
	}

	if err := s.execRepo.CreateBatch(execs); err != nil {
		return nil, fmt.Errorf("failed to store executions: %w", err)
	}
	result.Imported = len(execs)
	return result, nil
}

// enrich builds the stored execution from a validated fill.
func (s *IngestService) enrich(accountID string, fill RawFill, positions map[string]int64, seen map[string]bool) (*models.Execution, error) {
	side := models.ExecutionSide(fill.Side)
	ticker := s.tables.Convert(fill.Symbol)

	tradingDay := fill.TradingDay
	if tradingDay == "" {
		tradingDay = fill.ExecutedAt.Format("2006-01-02")
	}
	day, err := time.Parse("2006-01-02", tradingDay)
	if err != nil {
		return nil, fmt.Errorf("unparseable trading day %q", tradingDay)
	}
	_, week := day.ISOWeek()

	exec := &models.Execution{
		ID:          fill.ExecutionID,
		AccountID:   accountID,
		Symbol:      ticker,
		RawSymbol:   fill.Symbol,
		Side:        side,
		Quantity:    fill.Quantity,
		Price:       fill.Price,
		TradingDay:  tradingDay,
		WeekNum:     week,
		ExecutedAt:  fill.ExecutedAt,
		Exchange:    fill.Exchange,
		OrderType:   fill.OrderType,
		Description: fill.Description,
	}

	effect := exec.PositionEffect()
	exec.Fee = s.tables.Commission(ticker, fill.Quantity)
	exec.NotionalValue = s.tables.NotionalValue(ticker, fill.Price, effect)

	prevQty, firstOccurrence, err := s.runningPosition(accountID, fill.Symbol, positions, seen)
	if err != nil {
		return nil, err
	}
	newQty := prevQty + effect
	positions[fill.Symbol] = newQty

	exec.PositionQty = newQty
	exec.Status = positionStatus(ticker, firstOccurrence, prevQty, newQty)
	return exec, nil
}

// runningPosition continues the per-symbol running quantity across batches:
// the first fill for a symbol in this batch seeds from the most recent
// stored execution.
func (s *IngestService) runningPosition(accountID, rawSymbol string, positions map[string]int64, seen map[string]bool) (int64, bool, error) {
	if seen[rawSymbol] {
		return positions[rawSymbol], false, nil
	}
	seen[rawSymbol] = true

	qty, found, err := s.execRepo.LastPositionQty(accountID, rawSymbol)
	if err != nil {
		return 0, false, fmt.Errorf("failed to load running position: %w", err)
	}
	positions[rawSymbol] = qty
	return qty, !found, nil
}

// positionStatus mirrors the legacy bookkeeping: a position opens on the
// symbol's first-ever fill or whenever the prior quantity was flat, and
// closes whenever the new quantity returns to flat.
func positionStatus(ticker string, firstOccurrence bool, prevQty, newQty int64) string {
	switch {
	case firstOccurrence:
		return "To Open " + ticker
	case newQty == 0:
		return "To Close " + ticker
	case prevQty == 0:
		return "To Open " + ticker
	default:
		return ""
	}
}

func validateFill(fill RawFill) string {
	if fill.ExecutionID == "" {
		return "missing execution id"
	}
	if fill.Symbol == "" {
		return "missing symbol"
	}
	side := models.ExecutionSide(fill.Side)
	if side != models.ExecutionSideBuy && side != models.ExecutionSideSell {
		return fmt.Sprintf("unrecognized side %q", fill.Side)
	}
	if fill.Quantity <= 0 {
		return "quantity must be positive"
	}
	if !fill.Price.IsPositive() {
		return "price must be positive"
	}
	if fill.ExecutedAt.IsZero() {
		return "missing execution time"
	}
	return ""
}
