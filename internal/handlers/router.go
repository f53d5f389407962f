package handlers

import (
	"net/http"

	"github.com/JonnyWalker81/habitpulse/backend/internal/apierror"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/middleware"
	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the handlers' dependencies.
type Services struct {
	Analysis     service.AnalysisService
	Patterns     service.PatternService
	Correlations service.CorrelationService
	Risk         service.RiskService
}

// RouterConfig configures the HTTP surface.
type RouterConfig struct {
	Env         string
	Logger      logger.Logger
	Verifier    middleware.TokenVerifier
	CORSOrigins []string

	// RunLimiter throttles POST /analysis/run per user. Nil disables it.
	RunLimiter *middleware.RateLimiter
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Ctx(c.Request.Context()).Error("panic serving request", logger.Any("panic", recovered))
		apierror.AbortWithProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
	}))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeaders(cfg.Env == "production"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"env":    cfg.Env,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	analysisHandler := NewAnalysisHandler(svc.Analysis)
	patternHandler := NewPatternHandler(svc.Patterns)
	correlationHandler := NewCorrelationHandler(svc.Correlations)
	riskHandler := NewRiskHandler(svc.Risk)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.Verifier))
	{
		run := []gin.HandlerFunc{analysisHandler.Run}
		if cfg.RunLimiter != nil {
			run = append([]gin.HandlerFunc{cfg.RunLimiter.Middleware()}, run...)
		}
		v1.POST("/analysis/run", run...)

		v1.GET("/patterns", patternHandler.GetPatterns)
		v1.GET("/patterns/insights", patternHandler.GetInsights)
		v1.GET("/patterns/strength", patternHandler.GetStrength)

		v1.GET("/suggestions", patternHandler.ListSuggestions)
		v1.POST("/suggestions/:id/read", patternHandler.MarkSuggestionRead)
		v1.POST("/suggestions/:id/act", patternHandler.ActOnSuggestion)
		v1.DELETE("/suggestions/:id", patternHandler.DismissSuggestion)

		v1.GET("/correlations/summary", correlationHandler.GetSummary)
		v1.GET("/correlations/matrix", correlationHandler.GetMatrix)
		v1.GET("/correlations/insights", correlationHandler.GetInsights)
		v1.GET("/correlations/predictions", correlationHandler.GetPredictions)

		v1.GET("/risk/summary", riskHandler.GetSummary)

		v1.GET("/alerts", riskHandler.ListAlerts)
		v1.POST("/alerts/:id/read", riskHandler.MarkAlertRead)
		v1.DELETE("/alerts/:id", riskHandler.DismissAlert)
		v1.POST("/alerts/:id/intervention", riskHandler.TriggerIntervention)
	}

	return router
}
