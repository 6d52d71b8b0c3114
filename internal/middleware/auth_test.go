package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisphere/internal/logger"
	"unisphere/internal/models"
)

type stubProfiles map[string]*models.Profile

func (s stubProfiles) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	return s[id], nil
}

func newRouter(profiles ProfileGetter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("secret"))))
	r.GET("/login/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, c.Param("id"))
		s.Save()
		c.Status(http.StatusOK)
	})
	r.Use(LoadUser(profiles, logger.Discard()))
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})
	r.GET("/admin", AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func loginCookie(t *testing.T, r *gin.Engine, id string) *http.Cookie {
	t.Helper()
	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/login/"+id, nil)
	r.ServeHTTP(resp, req)
	cookies := resp.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func get(r *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	r.ServeHTTP(resp, req)
	return resp
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(stubProfiles{"u1": {ID: "u1", Username: "alice"}})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", nil).Code)

	resp := get(r, "/me", loginCookie(t, r, "u1"))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "alice", resp.Body.String())
}

func TestUnknownOrFailingUserIsAnonymous(t *testing.T) {
	r := newRouter(stubProfiles{})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", loginCookie(t, r, "ghost")).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", loginCookie(t, r, "broken")).Code)
}

func TestAdminRequired(t *testing.T) {
	r := newRouter(stubProfiles{
		"u1": {ID: "u1", Username: "alice", Role: models.RoleUser},
		"a1": {ID: "a1", Username: "root", Role: models.RoleAdmin},
	})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", nil).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", loginCookie(t, r, "u1")).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", loginCookie(t, r, "a1")).Code)
}
