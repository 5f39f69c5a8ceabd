package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/matching"
	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/repository"
	"github.com/tiltedtrades/trades-api/internal/storage"
)

var ErrInvalidJournal = errors.New("invalid journal request")

// JournalService manages free-text trade annotations. It shares the trade
// identity resolution contract with the override path: qualified lookup
// first, bare legacy id on miss, new writes always under the qualified key.
type JournalService struct {
	journalRepo  *repository.JournalRepository
	tradeService *TradeService
	charts       storage.ChartStore
}

// NewJournalService creates a new JournalService
func NewJournalService(
	journalRepo *repository.JournalRepository,
	tradeService *TradeService,
	charts storage.ChartStore,
) *JournalService {
	return &JournalService{
		journalRepo:  journalRepo,
		tradeService: tradeService,
		charts:       charts,
	}
}

// ResolveJournal looks up a journal by qualified or legacy id. A miss after
// both lookups is a definitive ErrJournalNotFound.
func (s *JournalService) ResolveJournal(accountID, rawTradeID string) (*models.Journal, error) {
	id := matching.Parse(rawTradeID, s.tradeService.LegacyDefault())

	journal, err := s.journalRepo.GetByTradeID(accountID, matching.Qualify(id.Method, id.LocalID))
	if err == nil {
		return journal, nil
	}
	if !errors.Is(err, repository.ErrJournalNotFound) {
		return nil, err
	}
	return s.journalRepo.GetByTradeID(accountID, id.LocalID)
}

// resolveForWrite finds the merge source for a journal write under the
// caller-supplied method. The bare legacy id is only consulted when the
// method is the configured legacy default; a record qualified under another
// method must never feed this write.
func (s *JournalService) resolveForWrite(accountID string, method models.CalcMethod, qualified, localID string) (*models.Journal, error) {
	journal, err := s.journalRepo.GetByTradeID(accountID, qualified)
	if err == nil {
		return journal, nil
	}
	if !errors.Is(err, repository.ErrJournalNotFound) {
		return nil, err
	}
	if method != s.tradeService.LegacyDefault() {
		return nil, repository.ErrJournalNotFound
	}
	return s.journalRepo.GetByTradeID(accountID, localID)
}

// UpsertJournalRequest carries a journal write. Nil fields are "not
// supplied" and preserve whatever the resolved record already holds.
type UpsertJournalRequest struct {
	TradeID string
	// Method qualifies ambiguous trade ids; empty falls back to the
	// configured legacy default.
	Method models.CalcMethod

	Notes *string
	Tags  []string
	// ChartKeys attaches chart artifacts already uploaded to the store.
	ChartKeys []string

	// OverrideCommission optionally carries a commission correction as a
	// side effect of the journal write; it follows the full override
	// contract including trade existence validation.
	OverrideCommission *decimal.Decimal
	OverrideReason     string
}

// UpsertJournal merges the supplied fields over the record resolved for
// the trade id, preserving unsupplied fields, and persists the result under
// the qualified identity. A legacy record that served as the merge source
// stays in place untouched; from then on the qualified record wins every
// resolution.
func (s *JournalService) UpsertJournal(accountID string, req UpsertJournalRequest) (*models.Journal, error) {
	method := req.Method
	if method == "" {
		method = s.tradeService.LegacyDefault()
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if req.Notes == nil && req.Tags == nil && len(req.ChartKeys) == 0 && req.OverrideCommission == nil {
		return nil, fmt.Errorf("%w: no fields supplied", ErrInvalidJournal)
	}

	localID := matching.LocalIDOf(req.TradeID)
	qualified := matching.Qualify(method, localID)

	journal, err := s.resolveForWrite(accountID, method, qualified, localID)
	switch {
	case err == nil && journal.TradeID != qualified:
		// Resolved a legacy record: merge from it, write a fresh qualified
		// record, leave the legacy row unmigrated.
		merged := *journal
		merged.ID = uuid.New().String()
		merged.TradeID = qualified
		merged.Method = method
		merged.LocalID = localID
		merged.Charts = nil
		journal = &merged
	case errors.Is(err, repository.ErrJournalNotFound):
		journal = &models.Journal{
			ID:        uuid.New().String(),
			AccountID: accountID,
			TradeID:   qualified,
			Method:    method,
			LocalID:   localID,
		}
	case err != nil:
		return nil, err
	}

	if req.Notes != nil {
		journal.Notes = *req.Notes
	}
	if req.Tags != nil {
		journal.Tags = strings.Join(models.NormalizeTags(req.Tags), ",")
	}
	for _, key := range req.ChartKeys {
		journal.Charts = append(journal.Charts, models.JournalChart{
			ID:         uuid.New().String(),
			JournalID:  journal.ID,
			StorageKey: key,
		})
	}

	if err := s.journalRepo.Save(journal); err != nil {
		return nil, fmt.Errorf("failed to persist journal: %w", err)
	}

	if req.OverrideCommission != nil {
		_, err := s.tradeService.WriteOverride(accountID, WriteOverrideRequest{
			TradeID:            localID,
			Method:             method,
			OverrideCommission: *req.OverrideCommission,
			Reason:             req.OverrideReason,
		})
		if err != nil {
			return nil, err
		}
	}

	return journal, nil
}

// DeleteJournal removes the journal that resolves for the given id and
// deletes its chart artifacts from the store. Artifact deletion is
// best-effort: an individual failure is logged and does not abort deletion
// of the remaining artifacts or of the journal record itself.
func (s *JournalService) DeleteJournal(ctx context.Context, accountID, rawTradeID string) error {
	journal, err := s.ResolveJournal(accountID, rawTradeID)
	if err != nil {
		return err
	}

	for _, chart := range journal.Charts {
		if err := s.charts.Delete(ctx, chart.StorageKey); err != nil {
			logPartialFailure("chart artifact delete", chart.StorageKey, err)
		}
	}

	return s.journalRepo.Delete(journal)
}

// JournalsFor lists all journals stored for an account.
func (s *JournalService) JournalsFor(accountID string) ([]models.Journal, error) {
	return s.journalRepo.GetByAccountID(accountID)
}
