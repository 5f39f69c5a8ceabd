package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/matching"
	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/repository"
)

var (
	ErrInvalidMethod   = errors.New("invalid calculation method")
	ErrInvalidOverride = errors.New("invalid override request")
	ErrTradeNotFound   = errors.New("trade not found")
)

// Notifier signals the stats subsystem that an account's aggregates are
// stale. Implementations are fire-and-forget.
type Notifier interface {
	NotifyStatsStale(accountID string)
}

// TradeService computes matched trades from the execution stream and
// reconciles commission overrides onto them. Identity resolution follows
// one policy everywhere: lookup by qualified id first, by bare legacy
// local id on miss, first hit wins, hits are never merged.
type TradeService struct {
	execRepo     *repository.ExecutionRepository
	overrideRepo *repository.OverrideRepository
	journalRepo  *repository.JournalRepository
	notifier     Notifier

	// legacyDefault is the method assumed for unprefixed legacy ids. It is
	// configuration, not a business rule; see matching.Parse.
	legacyDefault models.CalcMethod
}

// NewTradeService creates a new TradeService
func NewTradeService(
	execRepo *repository.ExecutionRepository,
	overrideRepo *repository.OverrideRepository,
	journalRepo *repository.JournalRepository,
	notifier Notifier,
	legacyDefault models.CalcMethod,
) *TradeService {
	if !legacyDefault.Valid() {
		legacyDefault = models.CalcMethodFIFO
	}
	return &TradeService{
		execRepo:      execRepo,
		overrideRepo:  overrideRepo,
		journalRepo:   journalRepo,
		notifier:      notifier,
		legacyDefault: legacyDefault,
	}
}

// ComputeTrades matches the account's executions under the given method and
// reconciles overrides and journal flags onto the result. Symbol may be
// empty to compute across all of the account's symbols. Open positions are
// returned alongside closed trades.
func (s *TradeService) ComputeTrades(accountID string, method models.CalcMethod, symbol string) ([]models.MatchedTrade, []models.OpenPosition, error) {
	result, err := s.computeRaw(accountID, method, symbol)
	if err != nil {
		return nil, nil, err
	}

	journaled, err := s.journalRepo.TradeIDsWithJournals(accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load journal keys: %w", err)
	}

	for i := range result.Trades {
		s.applyOverride(&result.Trades[i])
		if _, ok := journaled[result.Trades[i].TradeID]; ok {
			result.Trades[i].HasJournal = true
		} else if s.legacyApplies(result.Trades[i].Method) {
			_, ok = journaled[result.Trades[i].LocalID]
			result.Trades[i].HasJournal = ok
		}
	}
	return result.Trades, result.Open, nil
}

// computeRaw runs the matcher without reconciling overrides. Override
// writes use it to capture the trade's computed commission before the
// correction applies.
func (s *TradeService) computeRaw(accountID string, method models.CalcMethod, symbol string) (*matching.Result, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	var symbols []string
	var err error
	if symbol != "" {
		symbols = []string{symbol}
	} else {
		symbols, err = s.execRepo.DistinctSymbols(accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to list symbols: %w", err)
		}
	}

	combined := &matching.Result{}
	for _, sym := range symbols {
		execs, err := s.execRepo.GetByAccountAndSymbol(accountID, sym)
		if err != nil {
			return nil, fmt.Errorf("failed to load executions for %s: %w", sym, err)
		}
		if len(execs) == 0 {
			continue
		}

		var res *matching.Result
		if method == models.CalcMethodFIFO {
			res, err = matching.MatchFIFO(execs)
		} else {
			res, err = matching.MatchPerPosition(execs)
		}
		if err != nil {
			return nil, err
		}
		combined.Trades = append(combined.Trades, res.Trades...)
		combined.Open = append(combined.Open, res.Open...)
	}
	return combined, nil
}

// applyOverride resolves at most one override for the trade and, when one
// applies, recomputes net P&L from the corrected commission:
//
//	grossPL  = storedNetPL - originalStoredCommission
//	newNetPL = grossPL + overrideCommission
//
// The override's captured original commission is subtracted rather than the
// trade's current fee so fees are never double-counted.
func (s *TradeService) applyOverride(trade *models.MatchedTrade) {
	override := s.resolveForTrade(trade)
	if override == nil {
		return
	}

	gross := trade.NetPL.Sub(override.OriginalCommission)
	trade.NetPL = gross.Add(override.OverrideCommission)
	trade.TotalFee = override.OverrideCommission
	trade.OverrideAdjusted = true
}

// resolveForTrade looks up the override for a displayed trade: qualified id
// first, then the bare legacy local id. A legacy record carries no method,
// so it only ever applies to trades of the configured legacy default
// method; resolving it against the other method's trade with the same
// local id would leak the correction across methods.
func (s *TradeService) resolveForTrade(trade *models.MatchedTrade) *models.CommissionOverride {
	override, err := s.overrideRepo.GetByTradeID(trade.AccountID, trade.TradeID)
	if err == nil {
		return override
	}
	if !errors.Is(err, repository.ErrOverrideNotFound) {
		logPartialFailure("override lookup", trade.TradeID, err)
		return nil
	}

	if !s.legacyApplies(trade.Method) {
		return nil
	}
	override, err = s.overrideRepo.GetByTradeID(trade.AccountID, trade.LocalID)
	if err != nil {
		if !errors.Is(err, repository.ErrOverrideNotFound) {
			logPartialFailure("legacy override lookup", trade.LocalID, err)
		}
		return nil
	}
	return override
}

// legacyApplies reports whether unprefixed legacy records may resolve
// against trades of the given method.
func (s *TradeService) legacyApplies(method models.CalcMethod) bool {
	return method == s.legacyDefault
}

// ResolveOverride looks up an override by qualified or legacy id. A miss
// after both lookups is a definitive ErrOverrideNotFound, never retried.
func (s *TradeService) ResolveOverride(accountID, rawTradeID string) (*models.CommissionOverride, error) {
	id := matching.Parse(rawTradeID, s.legacyDefault)

	override, err := s.overrideRepo.GetByTradeID(accountID, matching.Qualify(id.Method, id.LocalID))
	if err == nil {
		return override, nil
	}
	if !errors.Is(err, repository.ErrOverrideNotFound) {
		return nil, err
	}
	return s.overrideRepo.GetByTradeID(accountID, id.LocalID)
}

// WriteOverrideRequest carries a commission correction for one trade.
type WriteOverrideRequest struct {
	TradeID string
	// Method qualifies ambiguous (legacy) trade ids; empty falls back to
	// the configured legacy default.
	Method             models.CalcMethod
	OverrideCommission decimal.Decimal
	Reason             string
}

// WriteOverride validates that the target trade exists under the requested
// method, captures the trade's computed commission as the original, and
// persists the correction under the qualified identity. New writes never
// use the bare legacy key; a pre-existing legacy record for the same local
// id stays addressable independently and is not migrated. A successful
// write fires the asynchronous stats recalculation trigger.
func (s *TradeService) WriteOverride(accountID string, req WriteOverrideRequest) (*models.CommissionOverride, error) {
	method := req.Method
	if method == "" {
		method = s.legacyDefault
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidOverride)
	}
	if req.OverrideCommission.IsPositive() {
		return nil, fmt.Errorf("%w: commission is a cost and cannot be positive", ErrInvalidOverride)
	}

	localID := matching.LocalIDOf(req.TradeID)
	trade, err := s.findTrade(accountID, method, localID)
	if err != nil {
		return nil, err
	}

	override := &models.CommissionOverride{
		ID:                 uuid.New().String(),
		AccountID:          accountID,
		TradeID:            matching.Qualify(method, localID),
		Method:             method,
		LocalID:            localID,
		OriginalCommission: trade.TotalFee,
		OverrideCommission: req.OverrideCommission,
		Reason:             req.Reason,
	}
	if err := s.overrideRepo.Upsert(override); err != nil {
		return nil, fmt.Errorf("failed to persist override: %w", err)
	}

	s.notifier.NotifyStatsStale(accountID)
	return override, nil
}

// DeleteOverride removes the override that resolves for the given id,
// qualified first, legacy on miss. Removal changes displayed P&L, so it
// fires the recalculation trigger too.
func (s *TradeService) DeleteOverride(accountID, rawTradeID string) error {
	override, err := s.ResolveOverride(accountID, rawTradeID)
	if err != nil {
		return err
	}
	if err := s.overrideRepo.DeleteByTradeID(accountID, override.TradeID); err != nil {
		return err
	}
	s.notifier.NotifyStatsStale(accountID)
	return nil
}

// findTrade locates the matched trade with the given local id under the
// given method. The computed (pre-override) commission is what callers
// capture as the override's original commission.
func (s *TradeService) findTrade(accountID string, method models.CalcMethod, localID string) (*models.MatchedTrade, error) {
	result, err := s.computeRaw(accountID, method, "")
	if err != nil {
		return nil, err
	}
	for i := range result.Trades {
		if result.Trades[i].LocalID == localID {
			return &result.Trades[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no %s trade with id %s", ErrTradeNotFound, method, localID)
}

// OverridesFor lists all overrides stored for an account.
func (s *TradeService) OverridesFor(accountID string) ([]models.CommissionOverride, error) {
	return s.overrideRepo.GetByAccountID(accountID)
}

// LegacyDefault exposes the configured legacy method assumption to
// collaborators that parse raw ids (journal service, handlers).
func (s *TradeService) LegacyDefault() models.CalcMethod {
	return s.legacyDefault
}
