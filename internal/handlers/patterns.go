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

// PatternHandler serves pattern models, pattern insights and suggestions
type PatternHandler struct {
	patternService service.PatternService
}

// NewPatternHandler creates a new pattern handler
func NewPatternHandler(patternService service.PatternService) *PatternHandler {
	return &PatternHandler{patternService: patternService}
}

// GetPatterns handles GET /api/v1/patterns
func (h *PatternHandler) GetPatterns(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	model, err := h.patternService.GetPatterns(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "pattern model", uid)
		return
	}
	c.JSON(http.StatusOK, model)
}

// GetInsights handles GET /api/v1/patterns/insights
func (h *PatternHandler) GetInsights(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	insights, err := h.patternService.GetInsights(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "pattern insights", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

// GetStrength handles GET /api/v1/patterns/strength
func (h *PatternHandler) GetStrength(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	strength, err := h.patternService.GetStrength(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "pattern strength", uid)
		return
	}
	c.JSON(http.StatusOK, strength)
}

var suggestionTypes = map[models.SuggestionType]bool{
	models.SuggestionHabitResumption: true,
	models.SuggestionUpcomingHabit:   true,
	models.SuggestionSequence:        true,
	models.SuggestionWeeklyHabit:     true,
}

// ListSuggestions handles GET /api/v1/suggestions?read=&type=
func (h *PatternHandler) ListSuggestions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var filter models.SuggestionFilter
	var fieldErrors []apierror.FieldError
	if raw, set := c.GetQuery("read"); set {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrors = append(fieldErrors, apierror.FieldError{Field: "read", Message: "must be true or false", Code: "invalid_bool"})
		} else {
			filter.Read = &read
		}
	}
	if raw := c.Query("type"); raw != "" {
		if !suggestionTypes[models.SuggestionType(raw)] {
			fieldErrors = append(fieldErrors, apierror.FieldError{Field: "type", Message: "unknown suggestion type", Code: "invalid_enum"})
		} else {
			filter.Type = models.SuggestionType(raw)
		}
	}
	if len(fieldErrors) > 0 {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), fieldErrors))
		return
	}

	suggestions, err := h.patternService.ListSuggestions(c.Request.Context(), uid, filter)
	if err != nil {
		writeError(c, err, "suggestions", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
}

// MarkSuggestionRead handles POST /api/v1/suggestions/:id/read
func (h *PatternHandler) MarkSuggestionRead(c *gin.Context) {
	h.mutateSuggestion(c, h.patternService.MarkSuggestionRead)
}

// ActOnSuggestion handles POST /api/v1/suggestions/:id/act
func (h *PatternHandler) ActOnSuggestion(c *gin.Context) {
	h.mutateSuggestion(c, h.patternService.ActOnSuggestion)
}

func (h *PatternHandler) mutateSuggestion(c *gin.Context, op func(ctx context.Context, userID, id string) (*models.Suggestion, error)) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	suggestion, err := op(c.Request.Context(), uid, id)
	if err != nil {
		writeError(c, err, "suggestion", id)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// DismissSuggestion handles DELETE /api/v1/suggestions/:id
func (h *PatternHandler) DismissSuggestion(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.patternService.DismissSuggestion(c.Request.Context(), uid, id); err != nil {
		writeError(c, err, "suggestion", id)
		return
	}
	c.Status(http.StatusNoContent)
}
