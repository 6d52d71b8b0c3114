package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/comments"
	"unisphere/internal/store"
)

var errForbidden = errors.New("forbidden")

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	var v *comments.ValidationError
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest
	case errors.Is(err, comments.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, comments.ErrClosed):
		return http.StatusServiceUnavailable
	case comments.IsStore(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": ...}. Server-side failures are logged and
// their details hidden from the client.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(code, gin.H{"error": http.StatusText(code)})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
