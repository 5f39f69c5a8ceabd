package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalcMethod identifies the execution-matching convention used to derive a
// closed trade. The two methods are computed independently from the same
// fill stream and their trade collections are never merged.
type CalcMethod string

const (
	CalcMethodFIFO        CalcMethod = "fifo"
	CalcMethodPerPosition CalcMethod = "perPosition"
)

// Valid reports whether m is one of the recognized matching methods.
func (m CalcMethod) Valid() bool {
	return m == CalcMethodFIFO || m == CalcMethodPerPosition
}

// TradeSide represents the direction of a round-trip trade
type TradeSide string

const (
	TradeSideLong  TradeSide = "long"
	TradeSideShort TradeSide = "short"
)

// MatchedTrade represents a closed round-trip derived from executions.
// It is recomputed on demand and never persisted; its identity is stable
// across recomputation as long as the underlying executions do not change.
type MatchedTrade struct {
	AccountID  string          `json:"account_id"`
	Symbol     string          `json:"symbol"`
	Side       TradeSide       `json:"side"`
	Quantity   int64           `json:"quantity"`
	EntryAt    time.Time       `json:"entry_at"`
	ExitAt     time.Time       `json:"exit_at"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	GrossPL    decimal.Decimal `json:"gross_pl"`
	// TotalFee is the sum of entry and exit fees, zero or negative.
	TotalFee decimal.Decimal `json:"total_fee"`
	NetPL    decimal.Decimal `json:"net_pl"`

	Method  CalcMethod `json:"method"`
	LocalID string     `json:"local_id"`
	// TradeID is the method-qualified identity "{method}#{localId}".
	TradeID string `json:"trade_id"`

	// OverrideAdjusted is set when a commission override resolved against
	// this trade and NetPL/TotalFee reflect the corrected commission.
	OverrideAdjusted bool `json:"override_adjusted"`
	HasJournal       bool `json:"has_journal"`
}

// OpenPosition reports residual quantity that could not be closed within
// the input window: either open lots awaiting an exit, or an exit with no
// offsetting entry anywhere in history. It is an expected steady state,
// not an error.
type OpenPosition struct {
	AccountID  string          `json:"account_id"`
	Symbol     string          `json:"symbol"`
	Side       TradeSide       `json:"side"`
	Quantity   int64           `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	OpenedAt   time.Time       `json:"opened_at"`
	Method     CalcMethod      `json:"method"`
}
