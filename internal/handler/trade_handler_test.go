package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/refdata"
	"github.com/tiltedtrades/trades-api/internal/repository"
	"github.com/tiltedtrades/trades-api/internal/service"
	"github.com/tiltedtrades/trades-api/internal/storage"
)

type noopNotifier struct{}

func (noopNotifier) NotifyStatsStale(string) {}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	execRepo := repository.NewExecutionRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	tables := refdata.New(
		map[string]refdata.SymbolSpec{"MES": {Multiplier: 5, TickSize: 0.25, ValuePerTick: 1.25}},
		map[string]refdata.CommissionSpec{"MES": {Tiers: map[string]float64{"3": 0.37}}},
		nil,
		"3",
	)

	tradeService := service.NewTradeService(
		execRepo,
		repository.NewOverrideRepository(db),
		journalRepo,
		noopNotifier{},
		models.CalcMethodFIFO,
	)
	journalService := service.NewJournalService(journalRepo, tradeService, storage.NewDiskChartStore(t.TempDir()))
	ingestService := service.NewIngestService(execRepo, tables)
	statsService := service.NewStatsService(tradeService, repository.NewStatsRepository(db))

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewTradeHandler(tradeService).RegisterRoutes(v1)
	NewJournalHandler(journalService).RegisterRoutes(v1)
	NewIngestHandler(ingestService).RegisterRoutes(v1)
	NewStatsHandler(statsService).RegisterRoutes(v1)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func importRoundTrip(t *testing.T, router *gin.Engine) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/executions", gin.H{
		"fills": []gin.H{
			{
				"execution_id": "e1", "symbol": "MES", "side": "Buy",
				"quantity": 1, "price": "100", "executed_at": "2025-03-12T10:00:00Z",
			},
			{
				"execution_id": "e2", "symbol": "MES", "side": "Sell",
				"quantity": 1, "price": "149", "executed_at": "2025-03-12T10:05:00Z",
			},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestTradesEndpointRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	importRoundTrip(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/accounts/acct-1/trades?method=fifo", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Trades []models.MatchedTrade `json:"trades"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Trades, 1)
	assert.Equal(t, "fifo#e1-e2-0", resp.Data.Trades[0].TradeID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/acct-1/trades?method=lifo", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverrideEndpointsWithEncodedTradeID(t *testing.T) {
	router := newTestRouter(t)
	importRoundTrip(t, router)

	// '#' travels percent-encoded in the path.
	path := "/api/v1/accounts/acct-1/overrides/fifo%23e1-e2-0"

	w := doJSON(t, router, http.MethodPut, path, gin.H{
		"override_commission": "-1.24",
		"reason":              "broker statement correction",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data models.CommissionOverride `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fifo#e1-e2-0", resp.Data.TradeID)

	// The bare legacy form resolves to the same record.
	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/acct-1/overrides/e1-e2-0", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOverrideEndpointValidation(t *testing.T) {
	router := newTestRouter(t)
	importRoundTrip(t, router)

	// Missing reason fails binding.
	w := doJSON(t, router, http.MethodPut, "/api/v1/accounts/acct-1/overrides/e1-e2-0", gin.H{
		"override_commission": "-1.24",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown trade.
	w = doJSON(t, router, http.MethodPut, "/api/v1/accounts/acct-1/overrides/no-such-trade", gin.H{
		"override_commission": "-1.24",
		"reason":              "typo",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJournalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	path := "/api/v1/accounts/acct-1/journals/fifo%23e1-e2-0"
	w := doJSON(t, router, http.MethodPut, path, gin.H{
		"notes": "late entry",
		"tags":  []string{"Breakout", "breakout"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data models.Journal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "late entry", resp.Data.Notes)
	assert.Equal(t, "breakout", resp.Data.Tags)

	w = doJSON(t, router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsEndpointRecompute(t *testing.T) {
	router := newTestRouter(t)
	importRoundTrip(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/stats/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data []models.AccountStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	for _, row := range resp.Data {
		assert.Equal(t, 1, row.TradeCount)
		assert.Equal(t, 1, row.WinCount)
	}
}
