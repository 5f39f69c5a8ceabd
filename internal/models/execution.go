package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionSide represents the fill side
type ExecutionSide string

const (
	ExecutionSideBuy  ExecutionSide = "Buy"
	ExecutionSideSell ExecutionSide = "Sell"
)

// Execution represents a single fill recorded by the upstream ingestion
// pipeline. Executions are immutable once stored; matching only reads them.
type Execution struct {
	ID        string          `gorm:"primaryKey;size:64" json:"execution_id"`
	AccountID string          `gorm:"size:64;not null;index:idx_exec_account_symbol" json:"account_id"`
	Symbol    string          `gorm:"size:20;not null;index:idx_exec_account_symbol" json:"symbol"`
	RawSymbol string          `gorm:"size:40" json:"raw_symbol"`
	Side      ExecutionSide   `gorm:"size:10;not null" json:"side"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price"`
	// Fee is the commission charged for the fill, always zero or negative.
	Fee           decimal.Decimal `gorm:"type:decimal(20,8)" json:"fee"`
	NotionalValue decimal.Decimal `gorm:"type:decimal(20,8)" json:"notional_value"`

	// TradingDay is the exchange session (yyyy-mm-dd) the fill belongs to.
	// It differs from the calendar date of ExecutedAt for after-hours fills.
	TradingDay string `gorm:"size:10;index" json:"trading_day"`
	WeekNum    int    `json:"week_num"`

	// ExecutedAt orders fills within an account/symbol stream.
	ExecutedAt time.Time `gorm:"index;not null" json:"executed_at"`

	// Ingestion metadata carried over from the broker export.
	Exchange    string `gorm:"size:20" json:"exchange,omitempty"`
	OrderType   string `gorm:"size:20" json:"order_type,omitempty"`
	Description string `gorm:"size:100" json:"description,omitempty"`
	PositionQty int64  `json:"position_qty"`
	Status      string `gorm:"size:40" json:"status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Execution model
func (Execution) TableName() string {
	return "executions"
}

// PositionEffect returns the signed quantity: positive for buys,
// negative for sells.
func (e *Execution) PositionEffect() int64 {
	if e.Side == ExecutionSideSell {
		return -e.Quantity
	}
	return e.Quantity
}
