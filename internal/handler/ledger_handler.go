package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/middleware"
	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/service"
	"github.com/tiltedtrades/trades-api/pkg/response"
)

// LedgerHandler handles account ledger API requests
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// CreateEntry handles recording a ledger entry
// POST /api/v1/accounts/:account_id/ledger
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	accountID := c.Param("account_id")

	var req struct {
		Type   string          `json:"type" binding:"required"`
		Amount decimal.Decimal `json:"amount"`
		Note   string          `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.ledgerService.WriteEntry(accountID, models.LedgerEntryType(req.Type), req.Amount, req.Note)
	if err != nil {
		if errors.Is(err, service.ErrInvalidLedgerEntry) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Created(c, entry)
}

// GetEntries handles listing all ledger entries for an account
// GET /api/v1/accounts/:account_id/ledger
func (h *LedgerHandler) GetEntries(c *gin.Context) {
	accountID := c.Param("account_id")

	entries, err := h.ledgerService.EntriesFor(accountID)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, entries)
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts/:account_id")
	{
		accounts.POST("/ledger", middleware.MutationLoggerMiddleware(), h.CreateEntry)
		accounts.GET("/ledger", h.GetEntries)
	}
}
