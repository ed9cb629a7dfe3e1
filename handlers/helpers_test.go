package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fitrank/fitrank-api/internal/config"
	"github.com/fitrank/fitrank-api/internal/mail"
	"github.com/fitrank/fitrank-api/internal/models"
	"github.com/fitrank/fitrank-api/internal/notifications"
	"github.com/fitrank/fitrank-api/internal/rankings"
	"github.com/fitrank/fitrank-api/internal/sessions"
	"github.com/fitrank/fitrank-api/internal/tokens"
	"github.com/fitrank/fitrank-api/internal/users"
	"github.com/fitrank/fitrank-api/pkg/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeMailer struct{ sent []mail.Message }

func (f *fakeMailer) Send(ctx context.Context, m mail.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

type fakeImages struct {
	name string
	data []byte
	err  error
}

func (f *fakeImages) UploadProfileImage(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name = filename
	f.data, _ = io.ReadAll(r)
	return "https://cdn.test/profile/" + filename, nil
}

type fakeSender struct {
	tokens []string
	err    error
}

func (f *fakeSender) Send(ctx context.Context, tokens []string, title, body string) (notifications.Result, error) {
	f.tokens = tokens
	return notifications.Result{SuccessCount: len(tokens)}, f.err
}

type testEnv struct {
	t        *testing.T
	router   *gin.Engine
	db       *gorm.DB
	redis    *mr.Miniredis
	mailer   *fakeMailer
	images   *fakeImages
	sender   *fakeSender
	users    *users.Service
	sessions *sessions.Service
	now      time.Time
}

// newTestEnv builds the full router; extra runs after auth on session-bound routes.
func newTestEnv(t *testing.T, extra ...gin.HandlerFunc) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.SessionStats{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	env := &testEnv{t: t, db: db, redis: m, mailer: &fakeMailer{}, images: &fakeImages{}, sender: &fakeSender{}, now: time.Now()}

	jwtCfg := config.JWTConfig{
		AccessSecret:    "access-secret-32-bytes-long-enough",
		RefreshSecret:   "refresh-secret-32-bytes-long-enough",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
	iss := tokens.NewIssuer(jwtCfg).WithClock(func() time.Time { return env.now })
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	env.sessions = sessions.NewService(sessions.NewRedisStore(rc, ""), iss)
	userRepo := users.NewGormRepository(db)
	env.users = users.NewService(userRepo, env.mailer).WithHashCost(bcrypt.MinCost)

	cookies := middleware.Cookies{AccessTTL: jwtCfg.AccessTokenTTL, RefreshTTL: jwtCfg.RefreshTokenTTL}
	guard := append([]gin.HandlerFunc{middleware.AccessAuth(env.sessions, cookies)}, extra...)

	r := gin.New()
	NewUserHandler(env.users, env.sessions, env.images, cookies).Register(r, guard...)
	NewRankingHandler(rankings.NewService(rankings.NewGormRepository(db))).Register(r, guard...)
	NewNotificationHandler(notifications.NewService(userRepo, env.sender)).Register(r, guard...)
	env.router = r
	return env
}

// do sends a JSON request; token, when set, goes in the Bearer header.
func (e *testEnv) do(method, path string, body interface{}, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(email, password, name string) uint {
	e.t.Helper()
	u, err := e.users.Register(context.Background(), users.Registration{Email: email, Password: password, Name: name})
	require.NoError(e.t, err)
	return u.ID
}

// login returns the access and refresh tokens for the account.
func (e *testEnv) login(email, password string) (string, string) {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/users/login", gin.H{"email": email, "password": password}, "")
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct{ AccessToken, RefreshToken string }
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken, resp.RefreshToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func uintString(id uint) string { return strconv.FormatUint(uint64(id), 10) }
