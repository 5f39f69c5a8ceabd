package repository

import (
	"time"

	"github.com/tiltedtrades/trades-api/internal/models"
	"gorm.io/gorm"
)

// LedgerRepository handles ledger entry data access
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create creates a new ledger entry
func (r *LedgerRepository) Create(entry *models.LedgerEntry) error {
	return r.db.Create(entry).Error
}

// GetByAccountID retrieves all ledger entries for an account, newest first.
func (r *LedgerRepository) GetByAccountID(accountID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	result := r.db.Where("account_id = ?", accountID).Order("created_at DESC").Find(&entries)
	return entries, result.Error
}

// GetByAccountIDAndRange retrieves entries created within a time range.
func (r *LedgerRepository) GetByAccountIDAndRange(accountID string, start, end time.Time) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	result := r.db.Where("account_id = ? AND created_at >= ? AND created_at <= ?", accountID, start, end).
		Order("created_at DESC").
		Find(&entries)
	return entries, result.Error
}
