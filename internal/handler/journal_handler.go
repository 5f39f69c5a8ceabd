package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/repository"
	"github.com/tiltedtrades/trades-api/internal/service"
	"github.com/tiltedtrades/trades-api/pkg/response"
)

// JournalHandler handles trade journal API requests
type JournalHandler struct {
	journalService *service.JournalService
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journalService *service.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
	}
}

// GetJournals handles listing all journals for an account
// GET /api/v1/accounts/:account_id/journals
func (h *JournalHandler) GetJournals(c *gin.Context) {
	accountID := c.Param("account_id")

	journals, err := h.journalService.JournalsFor(accountID)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, journals)
}

// GetJournal handles resolving one journal by trade id.
// A '#' in a qualified trade id must be percent-encoded as %23.
// GET /api/v1/accounts/:account_id/journals/:trade_id
func (h *JournalHandler) GetJournal(c *gin.Context) {
	accountID := c.Param("account_id")
	tradeID := c.Param("trade_id")

	journal, err := h.journalService.ResolveJournal(accountID, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrJournalNotFound) {
			response.NotFound(c, "journal not found")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, journal)
}

// PutJournal handles creating or merging a journal for a trade
// PUT /api/v1/accounts/:account_id/journals/:trade_id
func (h *JournalHandler) PutJournal(c *gin.Context) {
	accountID := c.Param("account_id")
	tradeID := c.Param("trade_id")

	var req struct {
		Method             string           `json:"method"`
		Notes              *string          `json:"notes"`
		Tags               []string         `json:"tags"`
		ChartKeys          []string         `json:"chart_keys"`
		OverrideCommission *decimal.Decimal `json:"override_commission"`
		OverrideReason     string           `json:"override_reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	journal, err := h.journalService.UpsertJournal(accountID, service.UpsertJournalRequest{
		TradeID:            tradeID,
		Method:             models.CalcMethod(req.Method),
		Notes:              req.Notes,
		Tags:               req.Tags,
		ChartKeys:          req.ChartKeys,
		OverrideCommission: req.OverrideCommission,
		OverrideReason:     req.OverrideReason,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTradeNotFound):
			response.NotFound(c, "trade not found")
		case errors.Is(err, service.ErrInvalidMethod),
			errors.Is(err, service.ErrInvalidJournal),
			errors.Is(err, service.ErrInvalidOverride):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
		return
	}

	response.Success(c, journal)
}

// DeleteJournal handles removing a journal and its chart artifacts
// DELETE /api/v1/accounts/:account_id/journals/:trade_id
func (h *JournalHandler) DeleteJournal(c *gin.Context) {
	accountID := c.Param("account_id")
	tradeID := c.Param("trade_id")

	err := h.journalService.DeleteJournal(c.Request.Context(), accountID, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrJournalNotFound) {
			response.NotFound(c, "journal not found")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "journal deleted"})
}

// RegisterRoutes registers journal routes
func (h *JournalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts/:account_id")
	{
		accounts.GET("/journals", h.GetJournals)
		accounts.GET("/journals/:trade_id", h.GetJournal)
		accounts.PUT("/journals/:trade_id", h.PutJournal)
		accounts.DELETE("/journals/:trade_id", h.DeleteJournal)
	}
}
