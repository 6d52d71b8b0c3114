package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/middleware"
	"unisphere/internal/models"
	"unisphere/internal/services"
	"unisphere/internal/store"
)

const (
	chatContextTurns = 10
	chatHistoryLimit = 200
	trendWindow      = 14
)

type ChatHandler struct {
	sentiment *services.SentimentService
	posts     *store.PostStore
	chats     *store.ChatStore
	log       logrus.FieldLogger
}

func NewChatHandler(sentiment *services.SentimentService, posts *store.PostStore, chats *store.ChatStore, log logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{sentiment: sentiment, posts: posts, chats: chats, log: log}
}

// Chat stores the user's message, answers it with the recent conversation as
// context and stores the reply. Both turns carry their sentiment.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		badRequest(c, "message is required")
		return
	}

	ctx := c.Request.Context()
	userID := middleware.CurrentUser(c).ID
	recent, err := h.chats.Recent(ctx, userID, chatContextTurns)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	history := make([]services.ChatTurn, len(recent))
	for i, m := range recent {
		history[i] = services.ChatTurn{Sender: m.Sender, Text: m.Message}
	}

	sentiment := h.sentiment.Analyze(ctx, req.Message)
	msg := &models.ChatMessage{UserID: userID, Message: req.Message, Sender: models.SenderUser, Sentiment: string(sentiment)}
	if err := h.chats.Create(ctx, msg); err != nil {
		respondError(c, h.log, err)
		return
	}

	text := h.sentiment.Respond(ctx, req.Message, history)
	reply := &models.ChatMessage{
		UserID:    userID,
		Message:   text,
		Sender:    models.SenderAI,
		Sentiment: string(h.sentiment.Analyze(ctx, text)),
	}
	if err := h.chats.Create(ctx, reply); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "reply": reply, "sentiment": sentiment})
}

func (h *ChatHandler) History(c *gin.Context) {
	list, err := h.chats.Recent(c.Request.Context(), middleware.CurrentUser(c).ID, chatHistoryLimit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": nonNil(list)})
}

func (h *ChatHandler) Clear(c *gin.Context) {
	n, err := h.chats.Clear(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// Report summarizes the sentiment of recent posts for the admin dashboard.
func (h *ChatHandler) Report(c *gin.Context) {
	tags, err := h.posts.RecentSentiments(c.Request.Context(), trendWindow)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	history := make([]services.Sentiment, len(tags))
	for i, t := range tags {
		history[i] = services.Sentiment(t)
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":    services.Aggregate(history),
		"trend":      services.Trend(history),
		"llm_failed": h.sentiment.Failed(),
	})
}

// ResetLLM lets the sentiment service retry the LLM after a failure.
func (h *ChatHandler) ResetLLM(c *gin.Context) {
	h.sentiment.ResetFailure()
	c.Status(http.StatusNoContent)
}
