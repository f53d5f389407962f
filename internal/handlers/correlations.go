package handlers

import (
	"net/http"

	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// CorrelationHandler serves views over the latest correlation analysis
type CorrelationHandler struct {
	correlationService service.CorrelationService
}

// NewCorrelationHandler creates a new correlation handler
func NewCorrelationHandler(correlationService service.CorrelationService) *CorrelationHandler {
	return &CorrelationHandler{correlationService: correlationService}
}

// GetSummary handles GET /api/v1/correlations/summary
func (h *CorrelationHandler) GetSummary(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	summary, err := h.correlationService.GetSummary(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "correlation summary", uid)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetMatrix handles GET /api/v1/correlations/matrix
func (h *CorrelationHandler) GetMatrix(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	matrix, err := h.correlationService.GetMatrix(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "correlation matrix", uid)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

// GetInsights handles GET /api/v1/correlations/insights
func (h *CorrelationHandler) GetInsights(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	insights, err := h.correlationService.GetInsights(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "correlation insights", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

// GetPredictions handles GET /api/v1/correlations/predictions
func (h *CorrelationHandler) GetPredictions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	predictions, err := h.correlationService.GetPredictions(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "predictions", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}
