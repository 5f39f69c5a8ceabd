package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tiltedtrades/trades-api/internal/service"
	"github.com/tiltedtrades/trades-api/pkg/response"
)

// StatsHandler handles account statistics API requests
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetStats handles reading the stored aggregates for an account
// GET /api/v1/accounts/:account_id/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	accountID := c.Param("account_id")

	stats, err := h.statsService.StatsFor(accountID)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, stats)
}

// RecomputeStats handles forcing a synchronous recomputation
// POST /api/v1/accounts/:account_id/stats/recompute
func (h *StatsHandler) RecomputeStats(c *gin.Context) {
	accountID := c.Param("account_id")

	if err := h.statsService.Recompute(accountID); err != nil {
		response.InternalError(c, err.Error())
		return
	}

	stats, err := h.statsService.StatsFor(accountID)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, stats)
}

// RegisterRoutes registers stats routes
func (h *StatsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts/:account_id")
	{
		accounts.GET("/stats", h.GetStats)
		accounts.POST("/stats/recompute", h.RecomputeStats)
	}
}
