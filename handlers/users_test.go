package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitrank/fitrank-api/internal/sessions"
	"github.com/fitrank/fitrank-api/pkg/middleware"
)

func TestSignUp(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/users/register", gin.H{
		"email": "a@b.io", "password": "secret", "name": "Alice", "birthday": "1990-05-17", "push": true,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "a@b.io", user["email"])
	assert.Equal(t, true, user["push"])
	assert.NotContains(t, user, "password")
	require.Len(t, env.mailer.sent, 1)

	w = env.do(http.MethodPost, "/api/users/register", gin.H{"email": "a@b.io", "password": "x", "name": "Dup"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/api/users/register", gin.H{"email": "not-an-email", "password": "x", "name": "N"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/users/register", gin.H{"email": "c@b.io", "password": "x", "name": "N", "birthday": "17/05/1990"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// bcrypt only accepts up to 72 bytes
	w = env.do(http.MethodPost, "/api/users/register", gin.H{"email": "d@b.io", "password": strings.Repeat("x", 73), "name": "N"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	id := env.register("a@b.io", "secret", "Alice")

	w := env.do(http.MethodPost, "/api/users/login", gin.H{"email": "a@b.io", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	access, refresh := body["accessToken"].(string), body["refreshToken"].(string)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, access, refresh)

	at, rt := cookie(w, middleware.AccessCookie), cookie(w, middleware.RefreshCookie)
	require.NotNil(t, at)
	require.NotNil(t, rt)
	assert.True(t, at.HttpOnly)
	assert.Equal(t, access, at.Value)
	assert.Equal(t, refresh, rt.Value)

	// refresh token persisted under refresh_token:<id>
	stored, err := env.redis.Get(sessions.DefaultPrefix + uintString(id))
	require.NoError(t, err)
	assert.Equal(t, refresh, stored)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.register("a@b.io", "secret", "Alice")

	w := env.do(http.MethodPost, "/api/users/login", gin.H{"email": "a@b.io", "password": "wrong"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, cookie(w, middleware.AccessCookie))
	assert.Empty(t, env.redis.Keys())

	w = env.do(http.MethodPost, "/api/users/login", gin.H{"email": "nobody@b.io", "password": "secret"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/users/login", gin.H{"email": "a@b.io"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.register("a@b.io", "secret", "Alice")
	_, refresh := env.login("a@b.io", "secret")

	w := env.do(http.MethodPost, "/api/users/refresh-token", gin.H{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["accessToken"])
	assert.NotNil(t, cookie(w, middleware.AccessCookie))

	// cookie fallback with no body
	w = env.do(http.MethodPost, "/api/users/refresh-token", nil, "", &http.Cookie{Name: middleware.RefreshCookie, Value: refresh})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/users/refresh-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/users/refresh-token", gin.H{"refreshToken": "forged"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExpiredAccessTokenRefreshedByMiddleware(t *testing.T) {
	env := newTestEnv(t)
	env.register("a@b.io", "secret", "Alice")
	access, refresh := env.login("a@b.io", "secret")

	env.now = env.now.Add(20 * time.Minute)

	w := env.do(http.MethodGet, "/api/users/profile", nil, "",
		&http.Cookie{Name: middleware.AccessCookie, Value: access},
		&http.Cookie{Name: middleware.RefreshCookie, Value: refresh})
	require.Equal(t, http.StatusOK, w.Code)
	fresh := cookie(w, middleware.AccessCookie)
	require.NotNil(t, fresh)
	assert.NotEqual(t, access, fresh.Value)

	w = env.do(http.MethodGet, "/api/users/profile", nil, access)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/api/users/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	env.register("a@b.io", "secret", "Alice")
	access, refresh := env.login("a@b.io", "secret")

	for i := 0; i < 2; i++ {
		w := env.do(http.MethodPost, "/api/users/logout", nil, access)
		require.Equal(t, http.StatusOK, w.Code)
		c := cookie(w, middleware.AccessCookie)
		require.NotNil(t, c)
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
	assert.Empty(t, env.redis.Keys())

	w := env.do(http.MethodPost, "/api/users/refresh-token", gin.H{"refreshToken": refresh}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	env.register("a@b.io", "secret", "Alice")
	access, _ := env.login("a@b.io", "secret")

	w := env.do(http.MethodGet, "/api/users/profile", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alice", decode(t, w)["user"].(map[string]interface{})["name"])

	w = env.do(http.MethodPut, "/api/users/profile", gin.H{"name": "Alicia", "fcm": "device-1", "marketing": true}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Alicia", user["name"])
	assert.Equal(t, "device-1", user["fcm"])
	assert.Equal(t, true, user["marketing"])
	assert.Equal(t, "a@b.io", user["email"])

	w = env.do(http.MethodPut, "/api/users/profile", gin.H{"fcm": ""}, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user"].(map[string]interface{})["fcm"])

	w = env.do(http.MethodPut, "/api/users/profile", gin.H{"email": ""}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	env.register("a@b.io", "secret", "Alice")
	access, _ := env.login("a@b.io", "secret")
	require.NoError(t, env.db.Exec("DELETE FROM users").Error)

	w := env.do(http.MethodGet, "/api/users/profile", nil, access)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodPut, "/api/users/profile", gin.H{"name": "x"}, access)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartImage(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	id := env.register("a@b.io", "secret", "Alice")
	access, _ := env.login("a@b.io", "secret")

	body, ct := multipartImage(t, "image", "me.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/users/upload-image", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://cdn.test/profile/me.png", decode(t, w)["imageUrl"])
	assert.Equal(t, []byte("png-bytes"), env.images.data)

	u, err := env.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u.Img)
	assert.Equal(t, "https://cdn.test/profile/me.png", *u.Img)

	// wrong field name: no file
	body, ct = multipartImage(t, "file", "me.png", []byte("x"))
	req = httptest.NewRequest(http.MethodPost, "/api/users/upload-image", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+access)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.images.err = errors.New("bucket unavailable")
	body, ct = multipartImage(t, "image", "me.png", []byte("x"))
	req = httptest.NewRequest(http.MethodPost, "/api/users/upload-image", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+access)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register("a@b.io", "secret", "Alice")

	w := env.do(http.MethodPost, "/api/users/reset-password", gin.H{"email": "a@b.io"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.mailer.sent, 2)

	w = env.do(http.MethodPost, "/api/users/login", gin.H{"email": "a@b.io", "password": "secret"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/users/reset-password", gin.H{"email": "nobody@b.io"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionRoutesRateLimitedPerUser(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimitMiddleware(0.01, 1))
	env.register("a@x.io", "p", "a")
	env.register("b@x.io", "p", "b")
	a, _ := env.login("a@x.io", "p")
	b, _ := env.login("b@x.io", "p")

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/users/profile", nil, a).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodGet, "/api/users/profile", nil, a).Code)
	// same client IP, different account: its own bucket
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/users/profile", nil, b).Code)

	// unauthenticated requests are rejected by auth before reaching the limiter
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/users/profile", nil, "").Code)
}
