package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/repository"
)

var ErrInvalidLedgerEntry = errors.New("invalid ledger entry")

// LedgerService records cash movements and balance corrections. A
// correction changes displayed account figures the same way an override
// does, so it qualifies for the stats recalculation trigger.
type LedgerService struct {
	ledgerRepo *repository.LedgerRepository
	notifier   Notifier
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo *repository.LedgerRepository, notifier Notifier) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo, notifier: notifier}
}

// WriteEntry validates and persists a ledger entry, firing the
// recalculation trigger for qualifying types.
func (s *LedgerService) WriteEntry(accountID string, entryType models.LedgerEntryType, amount decimal.Decimal, note string) (*models.LedgerEntry, error) {
	switch entryType {
	case models.LedgerEntryDeposit, models.LedgerEntryWithdrawal, models.LedgerEntryCorrection:
	default:
		return nil, fmt.Errorf("%w: unrecognized type %q", ErrInvalidLedgerEntry, entryType)
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: amount cannot be zero", ErrInvalidLedgerEntry)
	}

	entry := &models.LedgerEntry{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Type:      entryType,
		Amount:    amount,
		Note:      note,
		EntryDate: time.Now().UTC().Format("2006-01-02"),
	}
	if err := s.ledgerRepo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to persist ledger entry: %w", err)
	}

	if entry.QualifiesForRecalc() {
		s.notifier.NotifyStatsStale(accountID)
	}
	return entry, nil
}

// EntriesFor lists the account's ledger entries, newest first.
func (s *LedgerService) EntriesFor(accountID string) ([]models.LedgerEntry, error) {
	return s.ledgerRepo.GetByAccountID(accountID)
}
