package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tiltedtrades/trades-api/internal/middleware"
	"github.com/tiltedtrades/trades-api/internal/service"
	"github.com/tiltedtrades/trades-api/pkg/response"
)

// IngestHandler handles execution import API requests
type IngestHandler struct {
	ingestService *service.IngestService
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
	}
}

// ImportExecutions handles importing a batch of broker fills.
// Invalid rows are rejected individually; valid rows still import.
// POST /api/v1/accounts/:account_id/executions
func (h *IngestHandler) ImportExecutions(c *gin.Context) {
	accountID := c.Param("account_id")

	var req struct {
		Fills []service.RawFill `json:"fills" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.ingestService.ImportBatch(accountID, req.Fills)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBatch) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Created(c, result)
}

// RegisterRoutes registers execution import routes
func (h *IngestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts/:account_id")
	{
		accounts.POST("/executions", middleware.MutationLoggerMiddleware(), h.ImportExecutions)
	}
}
