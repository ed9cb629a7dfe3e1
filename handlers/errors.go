package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitrank/fitrank-api/internal/notifications"
	"github.com/fitrank/fitrank-api/internal/rankings"
	"github.com/fitrank/fitrank-api/internal/sessions"
	"github.com/fitrank/fitrank-api/internal/users"
	"github.com/fitrank/fitrank-api/pkg/logger"
)

// statusFor maps domain errors to HTTP status codes. Anything unrecognised
// is an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, rankings.ErrInvalidRankingType),
		errors.Is(err, rankings.ErrInvalidDateRange),
		errors.Is(err, notifications.ErrNoDeviceTokens):
		return http.StatusBadRequest
	// must precede ErrNoRecipients, which it wraps
	case errors.Is(err, notifications.ErrNoMatchingUsers):
		return http.StatusNotFound
	case errors.Is(err, notifications.ErrNoRecipients):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, users.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, sessions.ErrMissingAccessToken),
		errors.Is(err, sessions.ErrMissingRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, users.ErrIncorrectPassword),
		errors.Is(err, sessions.ErrInvalidToken),
		errors.Is(err, sessions.ErrInvalidRefreshToken):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"message": ...} with the mapped status. Upstream
// failures are logged and their details withheld from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorw("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(status, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}
