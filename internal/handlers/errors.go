package handlers

import (
	"errors"

	"github.com/JonnyWalker81/habitpulse/backend/internal/apierror"
	"github.com/JonnyWalker81/habitpulse/backend/internal/lock"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/middleware"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// unavailableRetryAfter is the Retry-After sent with 503s, in seconds.
const unavailableRetryAfter = 30

// userID returns the authenticated user, writing a 401 when there is none.
func userID(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.UserIDKey)
	if id == "" {
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
		return "", false
	}
	return id, true
}

// pathID validates the :id path parameter, writing a 400 when it is not a
// usable id.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := service.ValidateID(id); err != nil {
		apierror.WriteProblem(c, apierror.NewInvalidIDError(apierror.GetRequestID(c), "id", id))
		return "", false
	}
	return id, true
}

// writeError maps a service error to a problem response. Anything not
// recognized is a store failure and becomes a 503.
func writeError(c *gin.Context, err error, resource, id string) {
	requestID := apierror.GetRequestID(c)

	switch {
	case errors.Is(err, repository.ErrNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, resource, id))
	case errors.Is(err, lock.ErrBusy):
		apierror.WriteProblem(c, apierror.NewConflictError(requestID, err.Error()))
	default:
		logger.Ctx(c.Request.Context()).Error("failed to serve analytics request", logger.String("resource", resource), logger.Err(err))
		apierror.WriteProblem(c, apierror.NewUnavailableError(requestID, unavailableRetryAfter))
	}
}
