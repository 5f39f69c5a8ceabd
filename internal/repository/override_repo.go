package repository

import (
	"errors"

	"github.com/tiltedtrades/trades-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrOverrideNotFound = errors.New("commission override not found")
	ErrJournalNotFound  = errors.New("journal not found")
)

// OverrideRepository handles commission override data access. Lookups are
// exact-key only; the qualified-then-legacy resolution order lives in the
// service layer so the precedence rule stays auditable in one place.
type OverrideRepository struct {
	db *gorm.DB
}

// NewOverrideRepository creates a new OverrideRepository
func NewOverrideRepository(db *gorm.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// GetByTradeID retrieves the override stored under exactly this trade id,
// qualified or legacy.
func (r *OverrideRepository) GetByTradeID(accountID, tradeID string) (*models.CommissionOverride, error) {
	var override models.CommissionOverride
	result := r.db.Where("account_id = ? AND trade_id = ?", accountID, tradeID).First(&override)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOverrideNotFound
		}
		return nil, result.Error
	}
	return &override, nil
}

// Upsert creates the override or replaces the existing record for the same
// (account, trade id) key. A newer override supersedes the older one; the
// original id and creation time survive the update.
func (r *OverrideRepository) Upsert(override *models.CommissionOverride) error {
	existing, err := r.GetByTradeID(override.AccountID, override.TradeID)
	if err != nil {
		if errors.Is(err, ErrOverrideNotFound) {
			return r.db.Create(override).Error
		}
		return err
	}

	override.ID = existing.ID
	override.CreatedAt = existing.CreatedAt
	return r.db.Save(override).Error
}

// DeleteByTradeID removes the override stored under exactly this trade id.
func (r *OverrideRepository) DeleteByTradeID(accountID, tradeID string) error {
	result := r.db.Where("account_id = ? AND trade_id = ?", accountID, tradeID).
		Delete(&models.CommissionOverride{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOverrideNotFound
	}
	return nil
}

// GetByAccountID retrieves all overrides for an account, newest first.
func (r *OverrideRepository) GetByAccountID(accountID string) ([]models.CommissionOverride, error) {
	var overrides []models.CommissionOverride
	result := r.db.Where("account_id = ?", accountID).Order("updated_at DESC").Find(&overrides)
	return overrides, result.Error
}
