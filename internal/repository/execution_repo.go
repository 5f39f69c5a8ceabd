package repository

import (
	"errors"

	"github.com/tiltedtrades/trades-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExecutionRepository handles execution (fill) data access. The matching
// engine only reads from it; writes come from the ingestion path.
type ExecutionRepository struct {
	db *gorm.DB
}

// NewExecutionRepository creates a new ExecutionRepository
func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// CreateBatch inserts a batch of executions, skipping rows whose execution
// id already exists. Re-importing the same broker export is a no-op.
func (r *ExecutionRepository) CreateBatch(execs []*models.Execution) error {
	if len(execs) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(execs).Error
}

// GetByAccountID retrieves all executions for an account in match order.
func (r *ExecutionRepository) GetByAccountID(accountID string) ([]*models.Execution, error) {
	var execs []*models.Execution
	result := r.db.Where("account_id = ?", accountID).
		Order("executed_at ASC, id ASC").
		Find(&execs)
	return execs, result.Error
}

// GetByAccountAndSymbol retrieves one account/symbol stream in match order.
func (r *ExecutionRepository) GetByAccountAndSymbol(accountID, symbol string) ([]*models.Execution, error) {
	var execs []*models.Execution
	result := r.db.Where("account_id = ? AND symbol = ?", accountID, symbol).
		Order("executed_at ASC, id ASC").
		Find(&execs)
	return execs, result.Error
}

// DistinctSymbols returns the symbols an account has executions for.
func (r *ExecutionRepository) DistinctSymbols(accountID string) ([]string, error) {
	var symbols []string
	result := r.db.Model(&models.Execution{}).
		Where("account_id = ?", accountID).
		Distinct().
		Order("symbol ASC").
		Pluck("symbol", &symbols)
	return symbols, result.Error
}

// DistinctAccountIDs returns every account id with recorded executions.
func (r *ExecutionRepository) DistinctAccountIDs() ([]string, error) {
	var accounts []string
	result := r.db.Model(&models.Execution{}).
		Distinct().
		Order("account_id ASC").
		Pluck("account_id", &accounts)
	return accounts, result.Error
}

// LastPositionQty returns the running position quantity after the most
// recent execution for an account/symbol, or zero when none exist. The
// ingestion path uses it to continue the To Open / To Close bookkeeping
// across imports.
func (r *ExecutionRepository) LastPositionQty(accountID, rawSymbol string) (int64, bool, error) {
	var exec models.Execution
	result := r.db.Where("account_id = ? AND raw_symbol = ?", accountID, rawSymbol).
		Order("executed_at DESC, id DESC").
		First(&exec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, result.Error
	}
	return exec.PositionQty, true, nil
}
