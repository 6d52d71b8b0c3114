package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/comments"
	"unisphere/internal/middleware"
	"unisphere/internal/models"
	"unisphere/internal/services"
	"unisphere/internal/utils"
)

const replyExcerptLength = 140

type PostGetter interface {
	Get(ctx context.Context, id string) (*models.Post, error)
}

type CommentHandler struct {
	hub      *comments.Hub
	posts    PostGetter
	profiles comments.ProfileLookup
	notifier Notifier
	mail     *services.MailService
	log      logrus.FieldLogger
}

func NewCommentHandler(hub *comments.Hub, posts PostGetter, profiles comments.ProfileLookup,
	notifier Notifier, mail *services.MailService, log logrus.FieldLogger) *CommentHandler {
	return &CommentHandler{hub: hub, posts: posts, profiles: profiles, notifier: notifier, mail: mail, log: log}
}

type commentRequest struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type treeResponse struct {
	PostID    string           `json:"post_id"`
	Status    comments.Status  `json:"status"`
	IsLoading bool             `json:"is_loading"`
	Error     *string          `json:"error"`
	Tree      []*comments.Node `json:"tree"`
	Count     int              `json:"count"`
}

// Tree returns the synchronized comment tree. A failed reload is reported in
// the body next to the last good tree.
func (h *CommentHandler) Tree(c *gin.Context) {
	ctx := c.Request.Context()
	pid := c.Param("pid")
	if _, err := h.posts.Get(ctx, pid); err != nil {
		respondError(c, h.log, err)
		return
	}
	s, err := h.hub.Get(ctx, pid)
	if s == nil {
		respondError(c, h.log, err)
		return
	}

	state := s.Snapshot()
	resp := treeResponse{
		PostID:    state.PostID,
		Status:    state.Status,
		IsLoading: state.IsLoading,
		Tree:      state.Tree,
		Count:     comments.Count(state.Tree),
	}
	if state.Err != nil {
		msg := "failed to load comments"
		resp.Error = &msg
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Create(c *gin.Context) {
	h.add(c, "")
}

func (h *CommentHandler) Reply(c *gin.Context) {
	h.add(c, c.Param("cid"))
}

func (h *CommentHandler) add(c *gin.Context, parentID string) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	pid := c.Param("pid")
	post, err := h.posts.Get(ctx, pid)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	s, err := h.hub.Get(ctx, pid)
	if s == nil {
		respondError(c, h.log, err)
		return
	}

	user := middleware.CurrentUser(c)
	in := comments.NewComment{
		PostID:      pid,
		UserID:      user.ID,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
	}
	var node *comments.Node
	if parentID == "" {
		node, err = s.AddComment(ctx, in)
	} else {
		node, err = s.AddReply(ctx, parentID, in)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if parentID != "" {
		h.notifyReply(ctx, s, post, user, node)
	}
	c.JSON(http.StatusCreated, node)
}

// notifyReply tells the parent comment's author about a reply, in-app and
// by mail. Self-replies are skipped and anonymous repliers stay anonymous.
func (h *CommentHandler) notifyReply(ctx context.Context, s *comments.Synchronizer, post *models.Post, replier *models.Profile, node *comments.Node) {
	if node.ParentCommentID == nil {
		return
	}
	parent, err := s.Comment(ctx, *node.ParentCommentID)
	if err != nil || parent.UserID == nil || *parent.UserID == replier.ID {
		return
	}

	name := replier.Username
	var actor *string
	if node.IsAnonymous {
		name = "Someone"
	} else {
		id := replier.ID
		actor = &id
	}
	deliver(ctx, h.notifier, h.log, &models.Notification{
		UserID:  *parent.UserID,
		ActorID: actor,
		Type:    models.NotificationReply,
		Title:   name + " replied to your comment",
		Message: utils.Excerpt(node.Content, replyExcerptLength),
		Link:    "/posts/" + post.ID + "#comment-" + node.ID,
	})

	if !h.mail.Enabled() {
		return
	}
	recipient, err := h.profiles.GetProfile(ctx, *parent.UserID)
	if err != nil || recipient == nil {
		return
	}
	h.mail.SendReplyNotification(recipient.Email, recipient.Username, name, post.Title, node.Content)
}

// owned loads the comment addressed by the route and checks that the
// current user may modify it.
func (h *CommentHandler) owned(c *gin.Context) (*comments.Synchronizer, *models.Comment, bool) {
	ctx := c.Request.Context()
	s, err := h.hub.Get(ctx, c.Param("pid"))
	if s == nil {
		respondError(c, h.log, err)
		return nil, nil, false
	}
	row, err := s.Comment(ctx, c.Param("cid"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, nil, false
	}
	if row.PostID != s.PostID() {
		respondError(c, h.log, comments.ErrNotFound)
		return nil, nil, false
	}
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() && (row.UserID == nil || *row.UserID != user.ID) {
		respondError(c, h.log, errForbidden)
		return nil, nil, false
	}
	return s, row, true
}

func (h *CommentHandler) Update(c *gin.Context) {
	var req struct {
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, row, ok := h.owned(c)
	if !ok {
		return
	}
	updated, err := s.UpdateComment(c.Request.Context(), row.ID, comments.CommentPatch{Content: req.Content})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	s, row, ok := h.owned(c)
	if !ok {
		return
	}
	if err := s.DeleteComment(c.Request.Context(), row.ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommentHandler) Like(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := h.hub.Get(ctx, c.Param("pid"))
	if s == nil {
		respondError(c, h.log, err)
		return
	}
	row, err := s.Comment(ctx, c.Param("cid"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if row.PostID != s.PostID() {
		respondError(c, h.log, comments.ErrNotFound)
		return
	}
	liked, err := s.LikeComment(ctx, row.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, liked)
}
