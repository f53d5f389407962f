package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/JonnyWalker81/habitpulse/backend/internal/apierror"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// RiskHandler serves risk summaries and the alert lifecycle
type RiskHandler struct {
	riskService service.RiskService
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(riskService service.RiskService) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

// GetSummary handles GET /api/v1/risk/summary
func (h *RiskHandler) GetSummary(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	summary, err := h.riskService.GetSummary(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "risk summary", uid)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListAlerts handles GET /api/v1/alerts?unread=
func (h *RiskHandler) ListAlerts(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var filter models.AlertFilter
	if raw, set := c.GetQuery("unread"); set {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
				{Field: "unread", Message: "must be true or false", Code: "invalid_bool"},
			}))
			return
		}
		filter.UnreadOnly = unread
	}

	alerts, err := h.riskService.ListAlerts(c.Request.Context(), uid, filter)
	if err != nil {
		writeError(c, err, "alerts", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// MarkAlertRead handles POST /api/v1/alerts/:id/read
func (h *RiskHandler) MarkAlertRead(c *gin.Context) {
	h.mutateAlert(c, h.riskService.MarkAlertRead)
}

// TriggerIntervention handles POST /api/v1/alerts/:id/intervention
func (h *RiskHandler) TriggerIntervention(c *gin.Context) {
	h.mutateAlert(c, h.riskService.TriggerIntervention)
}

func (h *RiskHandler) mutateAlert(c *gin.Context, op func(ctx context.Context, userID, id string) (*models.Alert, error)) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	alert, err := op(c.Request.Context(), uid, id)
	if err != nil {
		writeError(c, err, "alert", id)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// DismissAlert handles DELETE /api/v1/alerts/:id
func (h *RiskHandler) DismissAlert(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.riskService.DismissAlert(c.Request.Context(), uid, id); err != nil {
		writeError(c, err, "alert", id)
		return
	}
	c.Status(http.StatusNoContent)
}
