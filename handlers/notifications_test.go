package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitrank/fitrank-api/internal/users"
)

func TestSendNotification(t *testing.T) {
	env := newTestEnv(t)
	a := env.register("a@x.io", "p", "a")
	env.register("b@x.io", "p", "b")
	_, err := env.users.UpdateProfile(context.Background(), a, users.ProfileUpdate{FCM: strp("device-a")})
	require.NoError(t, err)
	access, _ := env.login("a@x.io", "p")

	w := env.do(http.MethodPost, "/admin/send-notification",
		gin.H{"emails": []string{"a@x.io", "b@x.io"}, "title": "Hi", "message": "New record!"}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, 1.0, body["successCount"])
	assert.Equal(t, 0.0, body["failureCount"])
	assert.Equal(t, []string{"device-a"}, env.sender.tokens)
}

func TestSendNotification_Errors(t *testing.T) {
	env := newTestEnv(t)
	b := env.register("b@x.io", "p", "b")
	access, _ := env.login("b@x.io", "p")

	w := env.do(http.MethodPost, "/admin/send-notification", gin.H{"emails": []string{}}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/admin/send-notification", gin.H{"emails": []string{"nobody@x.io"}}, access)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/admin/send-notification", gin.H{"emails": []string{"b@x.io"}}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err := env.users.UpdateProfile(context.Background(), b, users.ProfileUpdate{FCM: strp("device-b")})
	require.NoError(t, err)
	env.sender.err = errors.New("fcm unavailable")
	w = env.do(http.MethodPost, "/admin/send-notification", gin.H{"emails": []string{"b@x.io"}}, access)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["message"])
}

func TestSendNotification_NotConfigured(t *testing.T) {
	r := gin.New()
	NewNotificationHandler(nil).Register(r, func(c *gin.Context) { c.Next() })
	env := &testEnv{t: t, router: r}
	w := env.do(http.MethodPost, "/admin/send-notification", gin.H{"emails": []string{"a@x.io"}}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func strp(s string) *string { return &s }
