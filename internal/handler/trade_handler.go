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

// TradeHandler handles computed trade and commission override API requests
type TradeHandler struct {
	tradeService *service.TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// GetTrades handles computing closed trades and open positions for an account
// GET /api/v1/accounts/:account_id/trades?method=fifo&symbol=MES
func (h *TradeHandler) GetTrades(c *gin.Context) {
	accountID := c.Param("account_id")

	method := models.CalcMethod(c.DefaultQuery("method", string(h.tradeService.LegacyDefault())))
	symbol := c.Query("symbol")

	trades, open, err := h.tradeService.ComputeTrades(accountID, method, symbol)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMethod) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"method": method,
		"trades": trades,
		"open":   open,
	})
}

// GetOverrides handles listing all commission overrides for an account
// GET /api/v1/accounts/:account_id/overrides
func (h *TradeHandler) GetOverrides(c *gin.Context) {
	accountID := c.Param("account_id")

	overrides, err := h.tradeService.OverridesFor(accountID)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, overrides)
}

// GetOverride handles resolving one override by trade id.
// A '#' in a qualified trade id must be percent-encoded as %23.
// GET /api/v1/accounts/:account_id/overrides/:trade_id
func (h *TradeHandler) GetOverride(c *gin.Context) {
	accountID := c.Param("account_id")
	tradeID := c.Param("trade_id")

	override, err := h.tradeService.ResolveOverride(accountID, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrOverrideNotFound) {
			response.NotFound(c, "override not found")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, override)
}

// PutOverride handles writing a commission override for a trade
// PUT /api/v1/accounts/:account_id/overrides/:trade_id
func (h *TradeHandler) PutOverride(c *gin.Context) {
	accountID := c.Param("account_id")
	tradeID := c.Param("trade_id")

	var req struct {
		Method             string          `json:"method"`
		OverrideCommission decimal.Decimal `json:"override_commission"`
		Reason             string          `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	override, err := h.tradeService.WriteOverride(accountID, service.WriteOverrideRequest{
		TradeID:            tradeID,
		Method:             models.CalcMethod(req.Method),
		OverrideCommission: req.OverrideCommission,
		Reason:             req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTradeNotFound):
			response.NotFound(c, "trade not found")
		case errors.Is(err, service.ErrInvalidMethod), errors.Is(err, service.ErrInvalidOverride):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
		return
	}

	response.Success(c, override)
}

// DeleteOverride handles removing a commission override
// DELETE /api/v1/accounts/:account_id/overrides/:trade_id
func (h *TradeHandler) DeleteOverride(c *gin.Context) {
	accountID := c.Param("account_id")
	tradeID := c.Param("trade_id")

	err := h.tradeService.DeleteOverride(accountID, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrOverrideNotFound) {
			response.NotFound(c, "override not found")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "override deleted"})
}

// RegisterRoutes registers trade and override routes
func (h *TradeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts/:account_id")
	{
		accounts.GET("/trades", h.GetTrades)
		accounts.GET("/overrides", h.GetOverrides)
		accounts.GET("/overrides/:trade_id", h.GetOverride)
		accounts.PUT("/overrides/:trade_id", h.PutOverride)
		accounts.DELETE("/overrides/:trade_id", h.DeleteOverride)
	}
}
