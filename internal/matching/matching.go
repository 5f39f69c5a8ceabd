package matching

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/models"
)

var (
	// ErrInvalidExecution marks a malformed fill (non-positive quantity).
	// Matching rejects the whole input before producing any trade.
	ErrInvalidExecution = errors.New("invalid execution")

	// ErrConservation marks a bookkeeping defect inside a matcher: the
	// signed quantities of the produced trades and residual positions do
	// not add back up to the input stream.
	ErrConservation = errors.New("quantity conservation violated")
)

// Result is the outcome of matching one account/symbol execution stream.
// Open positions are an expected steady state, reported alongside closed
// trades rather than as an error.
type Result struct {
	Trades []models.MatchedTrade
	Open   []models.OpenPosition
}

// validateAndSort checks every fill and returns a chronologically ordered
// copy. Sorting ties on the execution id so repeated runs over the same
// input always see the same order, which the identity scheme relies on.
func validateAndSort(execs []*models.Execution) ([]*models.Execution, error) {
	for _, e := range execs {
		if e.Quantity <= 0 {
			return nil, fmt.Errorf("%w: execution %s has quantity %d", ErrInvalidExecution, e.ID, e.Quantity)
		}
		if e.Side != models.ExecutionSideBuy && e.Side != models.ExecutionSideSell {
			return nil, fmt.Errorf("%w: execution %s has side %q", ErrInvalidExecution, e.ID, e.Side)
		}
	}
	sorted := make([]*models.Execution, len(execs))
	copy(sorted, execs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ExecutedAt.Equal(sorted[j].ExecutedAt) {
			return sorted[i].ExecutedAt.Before(sorted[j].ExecutedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted, nil
}

// tradeSideOf maps the side of the entry fill to the trade direction:
// positions entered with a buy are long, with a sell short.
func tradeSideOf(entrySide models.ExecutionSide) models.TradeSide {
	if entrySide == models.ExecutionSideSell {
		return models.TradeSideShort
	}
	return models.TradeSideLong
}

// grossPL computes price P&L for qty units between entry and exit.
func grossPL(side models.TradeSide, entryPrice, exitPrice decimal.Decimal, qty int64) decimal.Decimal {
	diff := exitPrice.Sub(entryPrice)
	if side == models.TradeSideShort {
		diff = entryPrice.Sub(exitPrice)
	}
	return diff.Mul(decimal.NewFromInt(qty))
}

// prorate splits a fill-level fee across partial consumption: the portion
// attributable to consumed units out of total.
func prorate(fee decimal.Decimal, consumed, total int64) decimal.Decimal {
	if total == 0 || consumed == total {
		return fee
	}
	return fee.Mul(decimal.NewFromInt(consumed)).Div(decimal.NewFromInt(total))
}

// checkConservation verifies that matched and residual signed quantities
// add back up to the input stream's signed quantity. Every closed trade
// nets to zero by construction, so the residual open quantity must equal
// the net of the whole stream.
func checkConservation(execs []*models.Execution, open []models.OpenPosition) error {
	var net int64
	for _, e := range execs {
		net += e.PositionEffect()
	}
	var residual int64
	for _, p := range open {
		if p.Side == models.TradeSideShort {
			residual -= p.Quantity
		} else {
			residual += p.Quantity
		}
	}
	if net != residual {
		return fmt.Errorf("%w: stream nets %d but %d remains open", ErrConservation, net, residual)
	}
	return nil
}
