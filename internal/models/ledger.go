package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType categorizes manual ledger writes
type LedgerEntryType string

const (
	LedgerEntryDeposit    LedgerEntryType = "deposit"
	LedgerEntryWithdrawal LedgerEntryType = "withdrawal"
	// LedgerEntryCorrection is a manual balance correction. Corrections
	// qualify for the stats recalculation trigger.
	LedgerEntryCorrection LedgerEntryType = "correction"
)

// LedgerEntry records a cash movement or balance correction for an account.
type LedgerEntry struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	AccountID string          `gorm:"size:64;not null;index" json:"account_id"`
	Type      LedgerEntryType `gorm:"size:20;not null" json:"type"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Note      string          `gorm:"size:255" json:"note,omitempty"`
	EntryDate string          `gorm:"size:10;index" json:"entry_date"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name for LedgerEntry model
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// QualifiesForRecalc reports whether this entry type should fire the
// asynchronous stats recalculation trigger.
func (e *LedgerEntry) QualifiesForRecalc() bool {
	return e.Type == LedgerEntryCorrection
}
