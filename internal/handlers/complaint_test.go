package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisphere/internal/logger"
	"unisphere/internal/middleware"
	"unisphere/internal/models"
	"unisphere/internal/store"
	"unisphere/internal/testutils"
)

func complaintRouter(t *testing.T, user *models.Profile) (*gin.Engine, sqlmock.Sqlmock) {
	return complaintRouterWith(t, user, &memNotifier{})
}

func complaintRouterWith(t *testing.T, user *models.Profile, notifier Notifier) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	t.Cleanup(cleanup)
	h := NewComplaintHandler(store.NewComplaintStore(gdb), store.NewProfileStore(gdb), notifier, nil, logger.Discard())

	r := testutils.SetupTestRouter()
	r.Use(func(c *gin.Context) { c.Set(middleware.CurrentUserKey, user) })
	r.POST("/complaints", h.Create)
	admin := r.Group("/admin", middleware.AdminRequired())
	admin.GET("/complaints", h.AdminList)
	admin.PATCH("/complaints/:id", h.AdminUpdate)
	return r, mock
}

func TestCreateComplaintDefaults(t *testing.T) {
	r, mock := complaintRouter(t, alice)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "complaints"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp := do(r, http.MethodPost, "/complaints", gin.H{"title": "Broken heater", "description": "Room 204 is freezing"})

	require.Equal(t, http.StatusCreated, resp.Code)
	var out models.Complaint
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "general", out.Category)
	assert.Equal(t, "medium", out.Priority)
	assert.Equal(t, models.ComplaintPending, out.Status)
	assert.Equal(t, "u1", out.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateComplaintValidation(t *testing.T) {
	r, _ := complaintRouter(t, alice)

	resp := do(r, http.MethodPost, "/complaints", gin.H{"title": " ", "description": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(r, http.MethodPost, "/complaints", gin.H{"title": "t", "description": "x", "priority": "whenever"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	r, _ := complaintRouter(t, alice)

	resp := do(r, http.MethodGet, "/admin/complaints", nil)

	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAdminListEnrichesAuthors(t *testing.T) {
	admin := &models.Profile{ID: "a1", Username: "root", Role: models.RoleAdmin}
	r, mock := complaintRouter(t, admin)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "complaints" WHERE status = \$1 ORDER BY created_at DESC`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "status", "priority", "created_at"}).
			AddRow("k1", "u1", "Broken heater", "pending", "high", now))
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id IN \(\$1\)`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "avatar_url"}).AddRow("u1", "alice", "🦊"))

	resp := do(r, http.MethodGet, "/admin/complaints?status=pending", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Complaints []models.Complaint `json:"complaints"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Complaints, 1)
	require.NotNil(t, body.Complaints[0].Author)
	assert.Equal(t, "alice", body.Complaints[0].Author.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdateRejectsUnknownStatus(t *testing.T) {
	admin := &models.Profile{ID: "a1", Username: "root", Role: models.RoleAdmin}
	r, _ := complaintRouter(t, admin)

	resp := do(r, http.MethodPatch, "/admin/complaints/k1", gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(r, http.MethodPatch, "/admin/complaints/k1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminUpdateNotifiesOwner(t *testing.T) {
	admin := &models.Profile{ID: "a1", Username: "root", Role: models.RoleAdmin}
	notes := &memNotifier{}
	r, mock := complaintRouterWith(t, admin, notes)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "complaints" SET .* WHERE id = \$\d`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "complaints" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "status", "admin_response"}).
			AddRow("k1", "u1", "Broken heater", "in_progress", "Maintenance is on it"))

	resp := do(r, http.MethodPatch, "/admin/complaints/k1", gin.H{"status": "in_progress", "admin_response": "Maintenance is on it"})

	require.Equal(t, http.StatusOK, resp.Code)
	sent := notes.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "u1", sent[0].UserID)
	assert.Equal(t, models.NotificationComplaint, sent[0].Type)
	assert.Equal(t, `Your report "Broken heater" is now in progress. Maintenance is on it`, sent[0].Message)
	assert.Equal(t, "/complaints/k1", sent[0].Link)
	assert.Nil(t, sent[0].ActorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
