package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Cookies describes how session cookies are written.
type Cookies struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (k Cookies) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", k.Secure, true)
}

func (k Cookies) SetAccess(c *gin.Context, token string) {
	k.set(c, AccessCookie, token, k.AccessTTL)
}

func (k Cookies) SetRefresh(c *gin.Context, token string) {
	k.set(c, RefreshCookie, token, k.RefreshTTL)
}

// Clear expires both session cookies.
func (k Cookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", "", k.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", k.Secure, true)
}
