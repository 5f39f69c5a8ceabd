package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/refdata"
	"github.com/tiltedtrades/trades-api/internal/repository"
)

func testTables() *refdata.Tables {
	return refdata.New(
		map[string]refdata.SymbolSpec{
			"MES": {Multiplier: 5, TickSize: 0.25, ValuePerTick: 1.25},
		},
		map[string]refdata.CommissionSpec{
			"MES": {Tiers: map[string]float64{"3": 0.37, "1": 0.52}},
		},
		map[string]string{"MESU5": "MES"},
		"3",
	)
}

func newIngestService(t *testing.T, db *gorm.DB) *IngestService {
	t.Helper()
	return NewIngestService(repository.NewExecutionRepository(db), testTables())
}

func rawFill(id, symbol, side string, qty int64, price float64, at time.Time) RawFill {
	return RawFill{
		ExecutionID: id,
		Symbol:      symbol,
		Side:        side,
		Quantity:    qty,
		Price:       decimal.NewFromFloat(price),
		ExecutedAt:  at,
	}
}

func TestImportBatchEnrichesFills(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	// A Friday evening fill belonging to the Monday session.
	at := time.Date(2025, 3, 14, 23, 15, 0, 0, time.UTC)
	fill := rawFill("x1", "MESU5", "Buy", 2, 5000, at)
	fill.TradingDay = "2025-03-17"

	result, err := svc.ImportBatch(testAccount, []RawFill{fill})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Rejected)

	var exec models.Execution
	require.NoError(t, db.First(&exec, "id = ?", "x1").Error)
	assert.Equal(t, "MES", exec.Symbol)
	assert.Equal(t, "MESU5", exec.RawSymbol)
	assert.True(t, decimal.NewFromFloat(-0.74).Equal(exec.Fee), "fee = %s", exec.Fee)
	// 5 * 5000 * +2 * -1
	assert.True(t, decimal.NewFromInt(-50000).Equal(exec.NotionalValue), "notional = %s", exec.NotionalValue)
	assert.Equal(t, "2025-03-17", exec.TradingDay)
	assert.Equal(t, 12, exec.WeekNum)
	assert.Equal(t, int64(2), exec.PositionQty)
	assert.Equal(t, "To Open MES", exec.Status)
}

func TestImportBatchTradingDayFallsBackToExecutionDate(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	at := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	result, err := svc.ImportBatch(testAccount, []RawFill{rawFill("x1", "MESU5", "Buy", 1, 5000, at)})
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	var exec models.Execution
	require.NoError(t, db.First(&exec, "id = ?", "x1").Error)
	assert.Equal(t, "2025-03-12", exec.TradingDay)
	assert.Equal(t, 11, exec.WeekNum)
}

func TestImportBatchPositionBookkeeping(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)
	at := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	result, err := svc.ImportBatch(testAccount, []RawFill{
		rawFill("x1", "MESU5", "Buy", 2, 5000, at),
		rawFill("x2", "MESU5", "Sell", 1, 5010, at.Add(time.Minute)),
		rawFill("x3", "MESU5", "Sell", 1, 5020, at.Add(2*time.Minute)),
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Imported)

	var execs []models.Execution
	require.NoError(t, db.Order("executed_at ASC").Find(&execs).Error)
	require.Len(t, execs, 3)
	assert.Equal(t, int64(2), execs[0].PositionQty)
	assert.Equal(t, "To Open MES", execs[0].Status)
	assert.Equal(t, int64(1), execs[1].PositionQty)
	assert.Equal(t, "", execs[1].Status)
	assert.Equal(t, int64(0), execs[2].PositionQty)
	assert.Equal(t, "To Close MES", execs[2].Status)

	// The next batch continues from the stored running quantity.
	result, err = svc.ImportBatch(testAccount, []RawFill{
		rawFill("x4", "MESU5", "Sell", 3, 5030, at.Add(3*time.Minute)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	var exec models.Execution
	require.NoError(t, db.First(&exec, "id = ?", "x4").Error)
	assert.Equal(t, int64(-3), exec.PositionQty)
	assert.Equal(t, "To Open MES", exec.Status)
}

func TestImportBatchRejectsInvalidRowsIndividually(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)
	at := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	result, err := svc.ImportBatch(testAccount, []RawFill{
		rawFill("x1", "MESU5", "Buy", 1, 5000, at),
		rawFill("", "MESU5", "Buy", 1, 5000, at),
		rawFill("x3", "MESU5", "Hold", 1, 5000, at),
		rawFill("x4", "MESU5", "Sell", 0, 5000, at),
		rawFill("x5", "MESU5", "Sell", 1, 0, at),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Rejected, 4)
	assert.Equal(t, 1, result.Rejected[0].Index)
	assert.Equal(t, "x3", result.Rejected[1].ID)

	var count int64
	require.NoError(t, db.Model(&models.Execution{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportBatchEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)

	_, err := svc.ImportBatch(testAccount, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestImportBatchReimportIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newIngestService(t, db)
	at := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	batch := []RawFill{rawFill("x1", "MESU5", "Buy", 1, 5000, at)}

	_, err := svc.ImportBatch(testAccount, batch)
	require.NoError(t, err)
	_, err = svc.ImportBatch(testAccount, batch)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Execution{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
