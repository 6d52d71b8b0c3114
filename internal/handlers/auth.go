package handlers

import (
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/middleware"
	"unisphere/internal/models"
	"unisphere/internal/services"
	"unisphere/internal/store"
	"unisphere/internal/utils"
)

const captchaSessionKey = "captcha_answer"

type AuthHandler struct {
	profiles *store.ProfileStore
	captcha  *services.CaptchaService
	log      logrus.FieldLogger
}

func NewAuthHandler(profiles *store.ProfileStore, captcha *services.CaptchaService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{profiles: profiles, captcha: captcha, log: log}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
	Captcha  int    `json:"captcha"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Captcha issues a new arithmetic challenge and remembers the answer in the session.
func (h *AuthHandler) Captcha(c *gin.Context) {
	question, answer := h.captcha.NewMathProblem()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, answer)
	if err := session.Save(); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": question})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username, email and password are required")
		return
	}

	session := sessions.Default(c)
	expected, ok := session.Get(captchaSessionKey).(int)
	// 验证码用过即失效
	session.Delete(captchaSessionKey)
	if !ok || req.Captcha != expected {
		session.Save()
		badRequest(c, "captcha answer is wrong")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(req.Username); n < 3 || n > 50 {
		badRequest(c, "username must be 3 to 50 characters")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		badRequest(c, "email is invalid")
		return
	}
	if len(req.Password) < 6 {
		badRequest(c, "password must be at least 6 characters")
		return
	}

	ctx := c.Request.Context()
	taken, err := h.profiles.Exists(ctx, req.Username, req.Email)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already registered"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	profile := &models.Profile{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		Password:  hash,
		FullName:  strings.TrimSpace(req.FullName),
		AvatarURL: utils.RandomAvatar(),
		Role:      models.RoleUser,
	}
	if err := h.profiles.Create(ctx, profile); err != nil {
		respondError(c, h.log, err)
		return
	}

	session.Set(middleware.SessionUserKey, profile.ID)
	if err := session.Save(); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.WithField("user_id", profile.ID).Info("profile registered")
	c.JSON(http.StatusCreated, profile)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	profile, err := h.profiles.GetByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil && err != store.ErrNotFound {
		respondError(c, h.log, err)
		return
	}
	if profile == nil || !utils.CheckPassword(profile.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong username or password"})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, profile.ID)
	if err := session.Save(); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
