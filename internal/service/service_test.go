package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/repository"
)

// newTestDB opens an isolated in-memory database per test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Execution{},
		&models.CommissionOverride{},
		&models.Journal{},
		&models.JournalChart{},
		&models.LedgerEntry{},
		&models.AccountStats{},
	))
	return db
}

// recordingNotifier captures staleness notifications synchronously.
type recordingNotifier struct {
	accounts []string
}

func (n *recordingNotifier) NotifyStatsStale(accountID string) {
	n.accounts = append(n.accounts, accountID)
}

func newTradeService(t *testing.T, db *gorm.DB, legacyDefault models.CalcMethod) (*TradeService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc := NewTradeService(
		repository.NewExecutionRepository(db),
		repository.NewOverrideRepository(db),
		repository.NewJournalRepository(db),
		notifier,
		legacyDefault,
	)
	return svc, notifier
}

var testStart = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

// seedExec stores one enriched execution directly, bypassing ingestion.
func seedExec(t *testing.T, db *gorm.DB, accountID, id, symbol string, side models.ExecutionSide, qty int64, price, fee float64, offset time.Duration) {
	t.Helper()
	exec := &models.Execution{
		ID:         id,
		AccountID:  accountID,
		Symbol:     symbol,
		RawSymbol:  symbol,
		Side:       side,
		Quantity:   qty,
		Price:      decimal.NewFromFloat(price),
		Fee:        decimal.NewFromFloat(fee),
		TradingDay: testStart.Format("2006-01-02"),
		ExecutedAt: testStart.Add(offset),
	}
	require.NoError(t, db.Create(exec).Error)
}
