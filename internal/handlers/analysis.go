package handlers

import (
	"net/http"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AnalysisHandler starts on-demand analysis runs
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// Run handles POST /api/v1/analysis/run
func (h *AnalysisHandler) Run(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	report, err := h.analysisService.Run(c.Request.Context(), uid, models.TriggerAPI)
	if err != nil {
		writeError(c, err, "analysis", uid)
		return
	}
	c.JSON(http.StatusOK, report)
}
