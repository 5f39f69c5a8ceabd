package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStats holds per-account aggregates recomputed asynchronously by the
// stats worker whenever a stale notification arrives. One row exists per
// (account, method) pair since the two matching conventions produce
// different trade sets.
type AccountStats struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AccountID string     `gorm:"size:64;not null;uniqueIndex:idx_stats_account_method" json:"account_id"`
	Method    CalcMethod `gorm:"size:16;not null;uniqueIndex:idx_stats_account_method" json:"method"`

	TradeCount   int             `json:"trade_count"`
	WinCount     int             `json:"win_count"`
	LossCount    int             `json:"loss_count"`
	GrossPL      decimal.Decimal `gorm:"type:decimal(20,8)" json:"gross_pl"`
	NetPL        decimal.Decimal `gorm:"type:decimal(20,8)" json:"net_pl"`
	TotalFees    decimal.Decimal `gorm:"type:decimal(20,8)" json:"total_fees"`
	OpenCount    int             `json:"open_count"`
	RecomputedAt time.Time       `json:"recomputed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for AccountStats model
func (AccountStats) TableName() string {
	return "account_stats"
}
