package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisphere/internal/logger"
	"unisphere/internal/models"
	"unisphere/internal/services"
	"unisphere/internal/store"
	"unisphere/internal/testutils"
	"unisphere/internal/utils"
)

func authRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	t.Cleanup(cleanup)
	h := NewAuthHandler(store.NewProfileStore(gdb), services.NewCaptchaService(), logger.Discard())

	r := testutils.SetupTestRouter()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("secret"))))
	r.GET("/captcha", h.Captcha)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	return r, mock
}

func doWithCookies(r http.Handler, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

// solveCaptcha fetches a challenge and returns its answer with the session cookies.
func solveCaptcha(t *testing.T, r http.Handler) (int, []*http.Cookie) {
	t.Helper()
	resp := do(r, http.MethodGet, "/captcha", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Question string `json:"question"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	var a, b int
	var op string
	_, err := fmt.Sscanf(body.Question, "%d %s %d", &a, &op, &b)
	require.NoError(t, err)
	if op == "-" {
		return a - b, resp.Result().Cookies()
	}
	return a + b, resp.Result().Cookies()
}

func TestRegister(t *testing.T) {
	r, mock := authRouter(t)
	answer, cookies := solveCaptcha(t, r)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles" WHERE username = \$1 OR email = \$2`).
		WithArgs("carol", "carol@uni.edu").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "profiles"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp := doWithCookies(r, http.MethodPost, "/register", gin.H{
		"username": "carol",
		"email":    "carol@uni.edu",
		"password": "hunter22",
		"captcha":  answer,
	}, cookies)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var out models.Profile
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "carol", out.Username)
	assert.Equal(t, models.RoleUser, out.Role)
	assert.NotEmpty(t, out.ID)
	assert.Contains(t, utils.AvatarChoices(), out.AvatarURL)
	assert.NotContains(t, resp.Body.String(), "hunter22")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejects(t *testing.T) {
	t.Run("wrong captcha", func(t *testing.T) {
		r, _ := authRouter(t)
		answer, cookies := solveCaptcha(t, r)
		resp := doWithCookies(r, http.MethodPost, "/register", gin.H{
			"username": "carol", "email": "carol@uni.edu", "password": "hunter22", "captcha": answer + 1,
		}, cookies)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("no captcha issued", func(t *testing.T) {
		r, _ := authRouter(t)
		resp := do(r, http.MethodPost, "/register", gin.H{
			"username": "carol", "email": "carol@uni.edu", "password": "hunter22", "captcha": 0,
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("bad email", func(t *testing.T) {
		r, _ := authRouter(t)
		answer, cookies := solveCaptcha(t, r)
		resp := doWithCookies(r, http.MethodPost, "/register", gin.H{
			"username": "carol", "email": "not-an-email", "password": "hunter22", "captcha": answer,
		}, cookies)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("taken", func(t *testing.T) {
		r, mock := authRouter(t)
		answer, cookies := solveCaptcha(t, r)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		resp := doWithCookies(r, http.MethodPost, "/register", gin.H{
			"username": "carol", "email": "carol@uni.edu", "password": "hunter22", "captcha": answer,
		}, cookies)
		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)
	profileRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "username", "password", "role"}).
			AddRow("u3", "carol", hash, models.RoleUser)
	}

	t.Run("ok", func(t *testing.T) {
		r, mock := authRouter(t)
		mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE username = \$1`).WillReturnRows(profileRows())

		resp := do(r, http.MethodPost, "/login", gin.H{"username": "carol", "password": "hunter22"})

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.NotEmpty(t, resp.Result().Cookies())
	})

	t.Run("wrong password", func(t *testing.T) {
		r, mock := authRouter(t)
		mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE username = \$1`).WillReturnRows(profileRows())

		resp := do(r, http.MethodPost, "/login", gin.H{"username": "carol", "password": "guess"})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		r, mock := authRouter(t)
		mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE username = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		resp := do(r, http.MethodPost, "/login", gin.H{"username": "nobody", "password": "hunter22"})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
