package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitrank/fitrank-api/internal/notifications"
)

type NotificationRequest struct {
	Emails  []string `json:"emails"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
}

type NotificationHandler struct {
	svc *notifications.Service
}

// NewNotificationHandler accepts a nil service when no push provider is
// configured; requests then answer 503.
func NewNotificationHandler(s *notifications.Service) *NotificationHandler {
	return &NotificationHandler{svc: s}
}

func (h *NotificationHandler) Register(rg gin.IRouter, guard ...gin.HandlerFunc) {
	rg.POST("/admin/send-notification", guarded(guard, h.Send)...)
}

func (h *NotificationHandler) Send(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "push notifications not configured"})
		return
	}
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	res, err := h.svc.Notify(c.Request.Context(), req.Emails, req.Title, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Notification sent",
		"successCount": res.SuccessCount,
		"failureCount": res.FailureCount,
	})
}
