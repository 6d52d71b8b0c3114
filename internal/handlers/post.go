package handlers

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/comments"
	"unisphere/internal/middleware"
	"unisphere/internal/models"
	"unisphere/internal/services"
	"unisphere/internal/store"
	"unisphere/internal/utils"
)

const (
	maxTitleLength  = 200
	defaultPageSize = 20
	maxPageSize     = 100
)

type PostHandler struct {
	posts     *store.PostStore
	profiles  *store.ProfileStore
	sentiment *services.SentimentService
	stats     *services.StatsWorker
	hub       *comments.Hub
	log       logrus.FieldLogger
}

func NewPostHandler(posts *store.PostStore, profiles *store.ProfileStore, sentiment *services.SentimentService,
	stats *services.StatsWorker, hub *comments.Hub, log logrus.FieldLogger) *PostHandler {
	return &PostHandler{posts: posts, profiles: profiles, sentiment: sentiment, stats: stats, hub: hub, log: log}
}

type createPostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// fillAuthors 批量填充作者信息，匿名帖子不填充
func (h *PostHandler) fillAuthors(ctx context.Context, posts []models.Post) {
	ids := make([]string, 0, len(posts))
	seen := make(map[string]bool)
	for _, p := range posts {
		if p.IsAnonymous || p.UserID == nil || seen[*p.UserID] {
			continue
		}
		seen[*p.UserID] = true
		ids = append(ids, *p.UserID)
	}
	authors, err := h.profiles.Authors(ctx, ids)
	if err != nil {
		h.log.WithError(err).Warn("load post authors failed")
		return
	}
	for i := range posts {
		p := &posts[i]
		if p.IsAnonymous || p.UserID == nil {
			continue
		}
		if a, ok := authors[*p.UserID]; ok {
			author := *a
			p.Author = &author
		}
	}
}

func (h *PostHandler) List(c *gin.Context) {
	limit := utils.ClampInt(c.Query("limit"), defaultPageSize, maxPageSize)
	page := utils.ClampInt(c.Query("page"), 1, 1000)
	sort := store.SortNewest
	if c.Query("sort") == store.SortHot {
		sort = store.SortHot
	}

	posts, err := h.posts.List(c.Request.Context(), sort, c.Query("category"), limit, (page-1)*limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.fillAuthors(c.Request.Context(), posts)
	c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page, "limit": limit})
}

func (h *PostHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	pid := c.Param("pid")

	post, err := h.posts.Get(ctx, pid)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.posts.IncrementViews(ctx, pid); err != nil {
		h.log.WithError(err).WithField("post_id", pid).Warn("increment views failed")
	} else {
		post.Views++
		h.stats.Schedule(pid)
	}

	list := []models.Post{*post}
	h.fillAuthors(ctx, list)
	out := list[0]
	out.ContentHTML = utils.RenderMarkdown(out.Content)
	c.JSON(http.StatusOK, out)
}

func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		badRequest(c, "title and content are required")
		return
	}
	if utf8.RuneCountInString(req.Title) > maxTitleLength {
		badRequest(c, "title is too long")
		return
	}

	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	post := &models.Post{
		UserID:      &user.ID,
		IsAnonymous: req.IsAnonymous,
		Title:       req.Title,
		Content:     req.Content,
		Category:    strings.TrimSpace(req.Category),
		Sentiment:   string(h.sentiment.Analyze(ctx, req.Title+"\n"+utils.PlainText(utils.RenderMarkdown(req.Content)))),
	}
	if err := h.posts.Create(ctx, post); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.stats.Schedule(post.ID)

	if !post.IsAnonymous {
		post.Author = user.Author()
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	pid := c.Param("pid")
	user := middleware.CurrentUser(c)

	post, err := h.posts.Get(ctx, pid)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !user.IsAdmin() && (post.UserID == nil || *post.UserID != user.ID) {
		respondError(c, h.log, errForbidden)
		return
	}
	if err := h.posts.Delete(ctx, pid); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.hub.Remove(pid)
	c.Status(http.StatusNoContent)
}

// Update edits a post. Only the author or an admin may edit; sentiment is
// recomputed when the text changes.
func (h *PostHandler) Update(c *gin.Context) {
	var req struct {
		Title    *string `json:"title"`
		Content  *string `json:"content"`
		Category *string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
			badRequest(c, "title must be 1 to 200 characters")
			return
		}
		updates["title"] = title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			badRequest(c, "content must not be empty")
			return
		}
		updates["content"] = content
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if len(updates) == 0 {
		badRequest(c, "nothing to update")
		return
	}

	ctx := c.Request.Context()
	pid := c.Param("pid")
	user := middleware.CurrentUser(c)
	post, err := h.posts.Get(ctx, pid)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !user.IsAdmin() && (post.UserID == nil || *post.UserID != user.ID) {
		respondError(c, h.log, errForbidden)
		return
	}
	if req.Title != nil || req.Content != nil {
		title, content := post.Title, post.Content
		if v, ok := updates["title"]; ok {
			title = v.(string)
		}
		if v, ok := updates["content"]; ok {
			content = v.(string)
		}
		updates["sentiment"] = string(h.sentiment.Analyze(ctx, title+"\n"+utils.PlainText(utils.RenderMarkdown(content))))
	}

	updated, err := h.posts.Update(ctx, pid, updates)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !updated.IsAnonymous {
		list := []models.Post{*updated}
		h.fillAuthors(ctx, list)
		updated = &list[0]
	}
	c.JSON(http.StatusOK, updated)
}

func (h *PostHandler) React(c *gin.Context) {
	var req struct {
		Type string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !models.ReactionKinds[req.Type] {
		badRequest(c, "unknown reaction type")
		return
	}
	reactions, err := h.posts.AddReaction(c.Request.Context(), c.Param("pid"), req.Type)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}
