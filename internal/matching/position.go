package matching

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/models"
)

// lifecycle is one continuous position: it begins with the fill that moves
// net quantity away from zero and ends with the fill that brings it back.
type lifecycle struct {
	start *models.Execution
	side  models.TradeSide

	netQty        int64
	entryQty      int64
	exitQty       int64
	entryNotional decimal.Decimal
	exitNotional  decimal.Decimal
	fees          decimal.Decimal
}

// MatchPerPosition nets one account/symbol stream into continuous position
// lifecycles. Fills in the direction of the position accumulate into a
// volume-weighted entry; opposite fills accumulate into a volume-weighted
// exit; a trade closes precisely when net quantity returns to zero. A fill
// that flips the sign without passing through zero closes the running
// lifecycle with its closing portion and opens a new one with the residue
// at the same execution.
//
// Local ids are "{symbol}-{startExecID}-{seq}", seq scoped to the symbol
// and the lifecycle's starting execution so identities stay stable across
// recomputation.
func MatchPerPosition(execs []*models.Execution) (*Result, error) {
	sorted, err := validateAndSort(execs)
	if err != nil {
		return nil, err
	}

	var (
		trades []models.MatchedTrade
		cur    *lifecycle
		seq    = make(map[string]int)
	)

	for _, e := range sorted {
		effect := e.PositionEffect()

		if cur == nil {
			cur = openLifecycle(e, e.Quantity, e.Fee)
			continue
		}

		extending := (cur.netQty > 0) == (effect > 0)
		if extending {
			cur.netQty += effect
			cur.entryQty += e.Quantity
			cur.entryNotional = cur.entryNotional.Add(e.Price.Mul(decimal.NewFromInt(e.Quantity)))
			cur.fees = cur.fees.Add(e.Fee)
			continue
		}

		// Opposite direction: close up to the running quantity first.
		closing := e.Quantity
		if abs(cur.netQty) < closing {
			closing = abs(cur.netQty)
		}
		cur.exitQty += closing
		cur.exitNotional = cur.exitNotional.Add(e.Price.Mul(decimal.NewFromInt(closing)))
		cur.fees = cur.fees.Add(prorate(e.Fee, closing, e.Quantity))
		if cur.netQty > 0 {
			cur.netQty -= closing
		} else {
			cur.netQty += closing
		}

		leftover := e.Quantity - closing
		if cur.netQty == 0 {
			trades = append(trades, closeLifecycle(cur, e, seq))
			cur = nil
		}
		if leftover > 0 {
			// Sign reversal: the residue opens the next lifecycle at the
			// reversal execution.
			cur = openLifecycle(e, leftover, prorate(e.Fee, leftover, e.Quantity))
		}
	}

	res := &Result{Trades: trades, Open: openLifecyclePosition(cur)}
	if err := checkConservation(sorted, res.Open); err != nil {
		return nil, err
	}
	return res, nil
}

func openLifecycle(e *models.Execution, qty int64, fee decimal.Decimal) *lifecycle {
	effect := e.PositionEffect()
	net := qty
	if effect < 0 {
		net = -qty
	}
	return &lifecycle{
		start:         e,
		side:          tradeSideOf(e.Side),
		netQty:        net,
		entryQty:      qty,
		entryNotional: e.Price.Mul(decimal.NewFromInt(qty)),
		fees:          fee,
	}
}

func closeLifecycle(lc *lifecycle, exit *models.Execution, seq map[string]int) models.MatchedTrade {
	entryPrice := lc.entryNotional.Div(decimal.NewFromInt(lc.entryQty))
	exitPrice := lc.exitNotional.Div(decimal.NewFromInt(lc.exitQty))

	gross := lc.exitNotional.Sub(lc.entryNotional)
	if lc.side == models.TradeSideShort {
		gross = lc.entryNotional.Sub(lc.exitNotional)
	}

	scope := lc.start.Symbol + "-" + lc.start.ID
	localID := fmt.Sprintf("%s-%d", scope, seq[scope])
	seq[scope]++

	return models.MatchedTrade{
		AccountID:  lc.start.AccountID,
		Symbol:     lc.start.Symbol,
		Side:       lc.side,
		Quantity:   lc.entryQty,
		EntryAt:    lc.start.ExecutedAt,
		ExitAt:     exit.ExecutedAt,
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		GrossPL:    gross,
		TotalFee:   lc.fees,
		NetPL:      gross.Add(lc.fees),
		Method:     models.CalcMethodPerPosition,
		LocalID:    localID,
		TradeID:    Qualify(models.CalcMethodPerPosition, localID),
	}
}

func openLifecyclePosition(lc *lifecycle) []models.OpenPosition {
	if lc == nil {
		return nil
	}
	return []models.OpenPosition{{
		AccountID:  lc.start.AccountID,
		Symbol:     lc.start.Symbol,
		Side:       lc.side,
		Quantity:   abs(lc.netQty),
		EntryPrice: lc.entryNotional.Div(decimal.NewFromInt(lc.entryQty)),
		OpenedAt:   lc.start.ExecutedAt,
		Method:     models.CalcMethodPerPosition,
	}}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
