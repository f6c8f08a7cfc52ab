package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

type notificationService interface {
	ListForReceiver(ctx context.Context, receiver models.Department) ([]models.Notification, error)
	ListOPDCertificates(ctx context.Context, receiver models.Department) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, receiver models.Department) (int64, error)
	CountUnread(ctx context.Context, receiver models.Department) (*service.UnreadCount, error)
}

// NotificationHandler exposes the in-app notification endpoints.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the notification handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List returns a receiver's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	receiver, ok := h.receiver(c)
	if !ok {
		return
	}
	notifications, err := h.service.ListForReceiver(c.Request.Context(), receiver)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":       true,
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// ListOPDCertificates returns a receiver's certificate-upload notifications.
func (h *NotificationHandler) ListOPDCertificates(c *gin.Context) {
	receiver, ok := h.receiver(c)
	if !ok {
		return
	}
	notifications, err := h.service.ListOPDCertificates(c.Request.Context(), receiver)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":       true,
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkRead flips one notification to read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "notification service not configured"))
		return
	}
	id, err := recordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success": true,
		"message": "Notification marked as read",
	})
}

// MarkAllRead flips every unread notification of a receiver. The legacy
// front end sends the receiver in the request body, not the query string.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	receiver, ok := h.bodyReceiver(c)
	if !ok {
		return
	}
	affected, err := h.service.MarkAllRead(c.Request.Context(), receiver)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("%d notifications marked as read", affected),
		"affectedRows": affected,
	})
}

// UnreadCount returns the receiver's unread totals and per-type breakdown.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	receiver, ok := h.receiver(c)
	if !ok {
		return
	}
	count, err := h.service.CountUnread(c.Request.Context(), receiver)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":         true,
		"total":           count.Total,
		"opdCertificates": count.OPDCertificates,
		"breakdown":       count.Breakdown,
	})
}

// receiver reads the mandatory receiver query parameter. The legacy error
// body uses a bare error field here, unlike the rest of the API.
func (h *NotificationHandler) receiver(c *gin.Context) (models.Department, bool) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "notification service not configured"))
		return "", false
	}
	raw := c.Query("receiver")
	if raw == "" {
		response.JSON(c, http.StatusBadRequest, gin.H{"error": "Receiver parameter is required"})
		return "", false
	}
	return models.Department(raw), true
}

// bodyReceiver reads the receiver from a JSON or form body, falling back to
// the query string.
func (h *NotificationHandler) bodyReceiver(c *gin.Context) (models.Department, bool) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "notification service not configured"))
		return "", false
	}
	var body struct {
		Receiver string `json:"receiver" form:"receiver"`
	}
	if err := c.ShouldBind(&body); err != nil || body.Receiver == "" {
		body.Receiver = c.Query("receiver")
	}
	if body.Receiver == "" {
		response.JSON(c, http.StatusBadRequest, gin.H{"error": "Receiver parameter is required"})
		return "", false
	}
	return models.Department(body.Receiver), true
}
