package middleware

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/models"
)

const (
	CurrentUserKey = "user"
	SessionUserKey = "user_id"
)

type ProfileGetter interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// LoadUser resolves the session's user and stores the profile in the context.
func LoadUser(profiles ProfileGetter, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(SessionUserKey).(string)
		if userID != "" {
			profile, err := profiles.GetProfile(c.Request.Context(), userID)
			switch {
			case err != nil:
				log.WithError(err).WithField("user_id", userID).Warn("load session user failed")
			case profile != nil:
				c.Set(CurrentUserKey, profile)
			}
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.Profile {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Profile)
	return p
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
