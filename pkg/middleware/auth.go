package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitrank/fitrank-api/internal/sessions"
	"github.com/fitrank/fitrank-api/pkg/logger"
	"github.com/fitrank/fitrank-api/pkg/metrics"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

// Validator is the minimal interface the middleware depends on
type Validator interface {
	ValidateAndRefresh(ctx context.Context, access, refresh string) (*sessions.Validation, error)
}

// AccessAuth verifies the access token from the access_token cookie or a
// Bearer header. An expired token is renewed from the refresh_token cookie
// and the new token is written back as a cookie and X-Access-Token header.
func AccessAuth(v Validator, cookies Cookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		access := accessToken(c)
		refresh, _ := c.Cookie(RefreshCookie)

		res, err := v.ValidateAndRefresh(c.Request.Context(), access, refresh)
		if err != nil {
			status, msg := authFailure(err)
			if status == http.StatusInternalServerError {
				logger.Errorw("access check failed", "err", err)
			}
			c.AbortWithStatusJSON(status, gin.H{"message": msg})
			return
		}
		if res.Refreshed {
			cookies.SetAccess(c, res.AccessToken)
			c.Header("X-Access-Token", res.AccessToken)
			metrics.AuthEvents.WithLabelValues("refresh", "success").Inc()
		}
		c.Set(UserIDKey, res.UserID)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if v, err := c.Cookie(AccessCookie); err == nil && v != "" {
		return v
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, sessions.ErrMissingAccessToken):
		return http.StatusUnauthorized, "Access token is missing"
	case errors.Is(err, sessions.ErrInvalidToken):
		return http.StatusForbidden, "Invalid access token"
	case errors.Is(err, sessions.ErrMissingRefreshToken):
		return http.StatusForbidden, "Access token expired and no refresh token provided"
	case errors.Is(err, sessions.ErrInvalidRefreshToken):
		return http.StatusForbidden, "Invalid refresh token"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// UserID returns the id stored by AccessAuth.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
