package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitrank/fitrank-api/internal/sessions"
	"github.com/fitrank/fitrank-api/internal/users"
	"github.com/fitrank/fitrank-api/pkg/logger"
	"github.com/fitrank/fitrank-api/pkg/metrics"
	"github.com/fitrank/fitrank-api/pkg/middleware"
)

// ImageStore persists uploaded profile images and returns their public URL.
type ImageStore interface {
	UploadProfileImage(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Birthday  string `json:"birthday"`
	Marketing bool   `json:"marketing"`
	Push      bool   `json:"push"`
	Notice    bool   `json:"notice"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserHandler holds dependencies
type UserHandler struct {
	users    *users.Service
	sessions *sessions.Service
	images   ImageStore
	cookies  middleware.Cookies
}

// NewUserHandler wires the account endpoints. images may be nil, in which
// case uploads answer 503.
func NewUserHandler(u *users.Service, s *sessions.Service, images ImageStore, cookies middleware.Cookies) *UserHandler {
	return &UserHandler{users: u, sessions: s, images: images, cookies: cookies}
}

// Register routes under /api/users. guard runs in order ahead of the
// session-bound ones; its first element must be the auth middleware.
func (h *UserHandler) Register(rg gin.IRouter, guard ...gin.HandlerFunc) {
	g := rg.Group("/api/users")
	g.POST("/register", h.SignUp)
	g.POST("/login", h.Login)
	g.POST("/refresh-token", h.RefreshToken)
	g.POST("/reset-password", h.ResetPassword)

	g.POST("/logout", guarded(guard, h.Logout)...)
	g.GET("/profile", guarded(guard, h.GetProfile)...)
	g.PUT("/profile", guarded(guard, h.UpdateProfile)...)
	g.POST("/upload-image", guarded(guard, h.UploadImage)...)
}

func (h *UserHandler) SignUp(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email, password and name are required")
		return
	}
	reg := users.Registration{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Marketing: req.Marketing,
		Push:      req.Push,
		Notice:    req.Notice,
	}
	if req.Birthday != "" {
		t, err := users.ParseDate(req.Birthday)
		if err != nil {
			badRequest(c, "birthday must be YYYY-MM-DD")
			return
		}
		reg.Birthday = &t
	}
	u, err := h.users.Register(c.Request.Context(), reg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		metrics.AuthEvents.WithLabelValues("login", "failure").Inc()
		respondError(c, err)
		return
	}
	pair, err := h.sessions.IssueSession(ctx, u.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.AuthEvents.WithLabelValues("login", "success").Inc()
	h.cookies.SetAccess(c, pair.AccessToken)
	h.cookies.SetRefresh(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

// RefreshToken takes the refresh token from the body or the refresh_token cookie.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "malformed request body")
		return
	}
	refresh := strings.TrimSpace(req.RefreshToken)
	if refresh == "" {
		refresh, _ = c.Cookie(middleware.RefreshCookie)
	}
	res, err := h.sessions.RefreshAccess(c.Request.Context(), refresh)
	if err != nil {
		metrics.AuthEvents.WithLabelValues("refresh", "failure").Inc()
		respondError(c, err)
		return
	}
	metrics.AuthEvents.WithLabelValues("refresh", "success").Inc()
	h.cookies.SetAccess(c, res.AccessToken)
	c.JSON(http.StatusOK, gin.H{"accessToken": res.AccessToken})
}

func (h *UserHandler) Logout(c *gin.Context) {
	id, _ := middleware.UserID(c)
	if err := h.sessions.Revoke(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	metrics.AuthEvents.WithLabelValues("logout", "success").Inc()
	h.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	id, _ := middleware.UserID(c)
	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req users.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	id, _ := middleware.UserID(c)
	u, err := h.users.UpdateProfile(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": u})
}

// UploadImage expects a multipart form with the file in field "image".
func (h *UserHandler) UploadImage(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "image storage not configured"})
		return
	}
	ctx := c.Request.Context()
	id, _ := middleware.UserID(c)
	if _, err := h.users.GetByID(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	url, err := h.images.UploadProfileImage(ctx, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.users.SetImage(ctx, id, url); err != nil {
		respondError(c, err)
		return
	}
	logger.Infow("profile image updated", "userId", id)
	c.JSON(http.StatusOK, gin.H{"message": "Image uploaded successfully", "imageUrl": url})
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email is required")
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "A temporary password has been sent to your email"})
}
