package handlers

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/middleware"
	"unisphere/internal/models"
	"unisphere/internal/store"
)

// Notifier stores in-app notifications.
type Notifier interface {
	Create(ctx context.Context, n *models.Notification) error
}

// deliver stores n if a notifier is configured. Failures are logged only.
func deliver(ctx context.Context, notifier Notifier, log logrus.FieldLogger, n *models.Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Create(ctx, n); err != nil {
		log.WithError(err).WithFields(logrus.Fields{"user_id": n.UserID, "type": n.Type}).Warn("store notification failed")
	}
}

type NotificationHandler struct {
	notifications *store.NotificationStore
	log           logrus.FieldLogger
}

func NewNotificationHandler(notifications *store.NotificationStore, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	list, err := h.notifications.ListByUser(ctx, user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	unread, err := h.notifications.UnreadCount(ctx, user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": nonNil(list), "unread_count": unread})
}

type notificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Link    string `json:"link"`
}

// Create stores a notification for the current user, e.g. a reminder the
// client schedules for itself.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	req.Type = strings.TrimSpace(req.Type)
	if req.Title == "" || req.Message == "" || req.Type == "" {
		badRequest(c, "title, message and type are required")
		return
	}
	if utf8.RuneCountInString(req.Title) > 200 || len(req.Type) > 30 {
		badRequest(c, "title or type is too long")
		return
	}

	n := &models.Notification{
		UserID:  middleware.CurrentUser(c).ID,
		Type:    models.NotificationType(req.Type),
		Title:   req.Title,
		Message: req.Message,
		Link:    strings.TrimSpace(req.Link),
	}
	if err := h.notifications.Create(c.Request.Context(), n); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) Update(c *gin.Context) {
	var req struct {
		IsRead  *bool   `json:"is_read"`
		Title   *string `json:"title"`
		Message *string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updates := map[string]interface{}{}
	if req.IsRead != nil {
		updates["is_read"] = *req.IsRead
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			badRequest(c, "title must not be empty")
			return
		}
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Message != nil {
		if strings.TrimSpace(*req.Message) == "" {
			badRequest(c, "message must not be empty")
			return
		}
		updates["message"] = strings.TrimSpace(*req.Message)
	}
	if len(updates) == 0 {
		badRequest(c, "nothing to update")
		return
	}
	h.update(c, updates)
}

func (h *NotificationHandler) Read(c *gin.Context) {
	h.update(c, map[string]interface{}{"is_read": true})
}

func (h *NotificationHandler) update(c *gin.Context, updates map[string]interface{}) {
	n, err := h.notifications.Update(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).ID, updates)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
