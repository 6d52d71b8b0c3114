package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/middleware"
	"unisphere/internal/models"
	"unisphere/internal/services"
	"unisphere/internal/store"
	"unisphere/internal/utils"
)

type ComplaintHandler struct {
	complaints *store.ComplaintStore
	profiles   *store.ProfileStore
	notifier   Notifier
	mail       *services.MailService
	log        logrus.FieldLogger
}

func NewComplaintHandler(complaints *store.ComplaintStore, profiles *store.ProfileStore,
	notifier Notifier, mail *services.MailService, log logrus.FieldLogger) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, profiles: profiles, notifier: notifier, mail: mail, log: log}
}

type complaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	ImageURL    string `json:"image_url"`
}

func (h *ComplaintHandler) Create(c *gin.Context) {
	var req complaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		badRequest(c, "title and description are required")
		return
	}
	if req.Category == "" {
		req.Category = "general"
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if _, ok := models.ComplaintPriorities[req.Priority]; !ok {
		badRequest(c, "priority must be low, medium, high or urgent")
		return
	}

	complaint := &models.Complaint{
		UserID:      middleware.CurrentUser(c).ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      models.ComplaintPending,
		ImageURL:    strings.TrimSpace(req.ImageURL),
	}
	if err := h.complaints.Create(c.Request.Context(), complaint); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

func (h *ComplaintHandler) Mine(c *gin.Context) {
	list, err := h.complaints.ListByUser(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": nonNil(list)})
}

func (h *ComplaintHandler) fillAuthors(ctx context.Context, list []models.Complaint) {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(list))
	for _, k := range list {
		if !seen[k.UserID] {
			seen[k.UserID] = true
			ids = append(ids, k.UserID)
		}
	}
	authors, err := h.profiles.Authors(ctx, ids)
	if err != nil {
		h.log.WithError(err).Warn("load complaint authors failed")
		return
	}
	for i := range list {
		if a, ok := authors[list[i].UserID]; ok {
			author := *a
			list[i].Author = &author
		}
	}
}

// AdminList lists every complaint with its author. Query: status, category,
// priority, sort=created_at|priority.
func (h *ComplaintHandler) AdminList(c *gin.Context) {
	filter := store.ComplaintFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		SortBy:   c.Query("sort"),
	}
	if filter.Status == "all" {
		filter.Status = ""
	}
	list, err := h.complaints.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.fillAuthors(c.Request.Context(), list)
	c.JSON(http.StatusOK, gin.H{"complaints": nonNil(list)})
}

func (h *ComplaintHandler) AdminUpdate(c *gin.Context) {
	var req struct {
		Status        *string `json:"status"`
		AdminResponse *string `json:"admin_response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updates := map[string]interface{}{}
	if req.Status != nil {
		if !models.ValidComplaintStatus(*req.Status) {
			badRequest(c, "unknown status")
			return
		}
		updates["status"] = *req.Status
	}
	if req.AdminResponse != nil {
		updates["admin_response"] = strings.TrimSpace(*req.AdminResponse)
	}
	if len(updates) == 0 {
		badRequest(c, "nothing to update")
		return
	}

	ctx := c.Request.Context()
	complaint, err := h.complaints.Update(ctx, c.Param("id"), updates)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	status := strings.ReplaceAll(complaint.Status, "_", " ")
	message := "Your report \"" + complaint.Title + "\" is now " + status + "."
	if complaint.AdminResponse != "" {
		message += " " + utils.Excerpt(complaint.AdminResponse, replyExcerptLength)
	}
	deliver(ctx, h.notifier, h.log, &models.Notification{
		UserID:  complaint.UserID,
		Type:    models.NotificationComplaint,
		Title:   "Your report was updated",
		Message: message,
		Link:    "/complaints/" + complaint.ID,
	})
	if h.mail.Enabled() {
		if owner, err := h.profiles.GetProfile(ctx, complaint.UserID); err == nil && owner != nil {
			h.mail.SendComplaintUpdate(owner.Email, owner.Username, complaint.Title, complaint.Status, complaint.AdminResponse)
		}
	}
	c.JSON(http.StatusOK, complaint)
}

func (h *ComplaintHandler) AdminDelete(c *gin.Context) {
	if err := h.complaints.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
