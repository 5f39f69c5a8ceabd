package repository

import (
	"errors"

	"github.com/tiltedtrades/trades-api/internal/models"
	"gorm.io/gorm"
)

// JournalRepository handles journal data access. Like overrides, lookups
// are exact-key; resolution order is a service concern.
type JournalRepository struct {
	db *gorm.DB
}

// NewJournalRepository creates a new JournalRepository
func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// GetByTradeID retrieves the journal stored under exactly this trade id,
// with its chart references.
func (r *JournalRepository) GetByTradeID(accountID, tradeID string) (*models.Journal, error) {
	var journal models.Journal
	result := r.db.Preload("Charts").
		Where("account_id = ? AND trade_id = ?", accountID, tradeID).
		First(&journal)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrJournalNotFound
		}
		return nil, result.Error
	}
	return &journal, nil
}

// Save persists the journal and its chart associations.
func (r *JournalRepository) Save(journal *models.Journal) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(journal).Error
}

// Delete removes the journal row and, via the cascade constraint, its
// chart reference rows. The stored chart artifacts themselves are the
// service's responsibility.
func (r *JournalRepository) Delete(journal *models.Journal) error {
	return r.db.Select("Charts").Delete(journal).Error
}

// GetByAccountID retrieves all journals for an account, newest first.
func (r *JournalRepository) GetByAccountID(accountID string) ([]models.Journal, error) {
	var journals []models.Journal
	result := r.db.Preload("Charts").
		Where("account_id = ?", accountID).
		Order("updated_at DESC").
		Find(&journals)
	return journals, result.Error
}

// TradeIDsWithJournals returns the set of trade ids that have a journal,
// used to flag journaled trades in trade listings without loading bodies.
func (r *JournalRepository) TradeIDsWithJournals(accountID string) (map[string]struct{}, error) {
	var ids []string
	result := r.db.Model(&models.Journal{}).
		Where("account_id = ?", accountID).
		Pluck("trade_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
