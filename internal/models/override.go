package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionOverride is a user-supplied correction of a computed trade
// commission. New records are always keyed by the method-qualified trade
// identity; rows written before the identity migration hold the bare local
// id and are kept addressable as read-only compatibility input.
type CommissionOverride struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	AccountID string `gorm:"size:64;not null;uniqueIndex:idx_override_account_trade" json:"account_id"`
	// TradeID is "{method}#{localId}" for post-migration rows and the bare
	// local id for legacy rows.
	TradeID string     `gorm:"size:128;not null;uniqueIndex:idx_override_account_trade" json:"trade_id"`
	Method  CalcMethod `gorm:"size:16" json:"method,omitempty"`
	LocalID string     `gorm:"size:110;index" json:"local_id"`

	// OriginalCommission is the trade's computed commission captured at
	// override time, before the correction applied.
	OriginalCommission decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"original_commission"`
	OverrideCommission decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"override_commission"`
	Reason             string          `gorm:"size:255" json:"reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for CommissionOverride model
func (CommissionOverride) TableName() string {
	return "commission_overrides"
}

// IsLegacy reports whether the record predates the identity migration,
// meaning its trade id carries no method prefix.
func (o *CommissionOverride) IsLegacy() bool {
	return o.Method == ""
}
