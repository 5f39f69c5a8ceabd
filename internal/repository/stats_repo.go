package repository

import (
	"errors"

	"github.com/tiltedtrades/trades-api/internal/models"
	"gorm.io/gorm"
)

// StatsRepository handles account statistics data access
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Upsert replaces the stats row for (account, method).
func (r *StatsRepository) Upsert(stats *models.AccountStats) error {
	var existing models.AccountStats
	result := r.db.Where("account_id = ? AND method = ?", stats.AccountID, stats.Method).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return r.db.Create(stats).Error
		}
		return result.Error
	}

	stats.ID = existing.ID
	stats.CreatedAt = existing.CreatedAt
	return r.db.Save(stats).Error
}

// GetByAccountID retrieves the stats rows for an account, one per method.
func (r *StatsRepository) GetByAccountID(accountID string) ([]models.AccountStats, error) {
	var stats []models.AccountStats
	result := r.db.Where("account_id = ?", accountID).Order("method ASC").Find(&stats)
	return stats, result.Error
}
