package matching

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/models"
)

// lot is an open slice of an entry execution awaiting an offsetting fill.
// Partial consumption leaves the remainder queued.
type lot struct {
	exec      *models.Execution
	remaining int64
}

// MatchFIFO matches exits against entries in strict chronological order for
// one account/symbol stream: the oldest open lot is always closed first.
// One exit fill that drains several entry lots produces one trade per lot,
// disambiguated by an index in the local id. A fill that outsizes the whole
// open queue reverses the position: the residue starts a new lot on the
// opposite side.
//
// The function is pure: identical inputs yield identical trades and
// identical local ids of the form "{entryExecID}-{exitExecID}-{index}".
func MatchFIFO(execs []*models.Execution) (*Result, error) {
	sorted, err := validateAndSort(execs)
	if err != nil {
		return nil, err
	}

	var (
		trades   []models.MatchedTrade
		queue    []*lot
		openSide models.ExecutionSide
	)

	for _, e := range sorted {
		if len(queue) == 0 || e.Side == openSide {
			queue = append(queue, &lot{exec: e, remaining: e.Quantity})
			openSide = e.Side
			continue
		}

		// Opposite side: consume open lots oldest-first.
		incoming := e.Quantity
		exitIndex := 0
		for incoming > 0 && len(queue) > 0 {
			front := queue[0]
			consumed := front.remaining
			if incoming < consumed {
				consumed = incoming
			}

			trades = append(trades, closeLot(front, e, consumed, exitIndex))
			exitIndex++

			front.remaining -= consumed
			incoming -= consumed
			if front.remaining == 0 {
				queue = queue[1:]
			}
		}

		// Direct reversal: leftover quantity opens the opposite side.
		if incoming > 0 {
			queue = append(queue, &lot{exec: e, remaining: incoming})
			openSide = e.Side
		}
	}

	res := &Result{Trades: trades, Open: openLots(queue, openSide)}
	if err := checkConservation(sorted, res.Open); err != nil {
		return nil, err
	}
	return res, nil
}

// closeLot builds the closed trade for consumed units of an entry lot
// against an exit fill. Fees from both fills are prorated by the share of
// each fill the trade actually used.
func closeLot(entry *lot, exit *models.Execution, consumed int64, exitIndex int) models.MatchedTrade {
	side := tradeSideOf(entry.exec.Side)
	entryFee := prorate(entry.exec.Fee, consumed, entry.exec.Quantity)
	exitFee := prorate(exit.Fee, consumed, exit.Quantity)
	fee := entryFee.Add(exitFee)
	gross := grossPL(side, entry.exec.Price, exit.Price, consumed)

	localID := fmt.Sprintf("%s-%s-%d", entry.exec.ID, exit.ID, exitIndex)
	return models.MatchedTrade{
		AccountID:  entry.exec.AccountID,
		Symbol:     entry.exec.Symbol,
		Side:       side,
		Quantity:   consumed,
		EntryAt:    entry.exec.ExecutedAt,
		ExitAt:     exit.ExecutedAt,
		EntryPrice: entry.exec.Price,
		ExitPrice:  exit.Price,
		GrossPL:    gross,
		TotalFee:   fee,
		NetPL:      gross.Add(fee),
		Method:     models.CalcMethodFIFO,
		LocalID:    localID,
		TradeID:    Qualify(models.CalcMethodFIFO, localID),
	}
}

// openLots aggregates the residual queue into a single open position with a
// volume-weighted entry price. An empty queue yields no outcome.
func openLots(queue []*lot, openSide models.ExecutionSide) []models.OpenPosition {
	if len(queue) == 0 {
		return nil
	}
	var qty int64
	notional := decimal.Zero
	for _, l := range queue {
		qty += l.remaining
		notional = notional.Add(l.exec.Price.Mul(decimal.NewFromInt(l.remaining)))
	}
	first := queue[0].exec
	return []models.OpenPosition{{
		AccountID:  first.AccountID,
		Symbol:     first.Symbol,
		Side:       tradeSideOf(openSide),
		Quantity:   qty,
		EntryPrice: notional.Div(decimal.NewFromInt(qty)),
		OpenedAt:   first.ExecutedAt,
		Method:     models.CalcMethodFIFO,
	}}
}
