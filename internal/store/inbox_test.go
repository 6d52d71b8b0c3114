package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisphere/internal/models"
	"unisphere/internal/testutils"
)

func TestNotificationCreateAssignsID(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewNotificationStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "notifications"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n := &models.Notification{UserID: "u1", Type: models.NotificationReply, Title: "bob replied", Message: "hi"}
	require.NoError(t, s.Create(context.Background(), n))
	assert.NotEmpty(t, n.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationListAndUnread(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewNotificationStore(gdb)

	mock.ExpectQuery(`SELECT \* FROM "notifications" WHERE user_id = \$1 ORDER BY created_at DESC LIMIT`).
		WithArgs("u1", notificationListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "is_read"}).
			AddRow("n2", "u1", "newer", false).
			AddRow("n1", "u1", "older", true))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "notifications" WHERE user_id = \$1 AND is_read = \$2`).
		WithArgs("u1", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, err := s.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)

	unread, err := s.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkAllRead(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewNotificationStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE user_id = \$2 AND is_read = \$3`).
		WithArgs(true, "u1", false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := s.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationOfAnotherUserLooksMissing(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewNotificationStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "notifications" WHERE id = \$1 AND user_id = \$2`).
		WithArgs("n1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE id = \$2 AND user_id = \$3`).
		WithArgs(true, "n1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.ErrorIs(t, s.Delete(context.Background(), "n1", "u2"), ErrNotFound)
	_, err := s.Update(context.Background(), "n1", "u2", map[string]interface{}{"is_read": true})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodUpdateReloadsRow(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewMoodStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "mood_tracking" SET .*"intensity"=.* WHERE id = \$\d+ AND user_id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "mood_tracking" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "mood", "intensity"}).AddRow("m1", "u1", "calm", 8))

	m, err := s.Update(context.Background(), "m1", "u1", map[string]interface{}{"intensity": 8})
	require.NoError(t, err)
	assert.Equal(t, 8, m.Intensity)
	assert.Equal(t, "calm", m.Mood)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodCreateDefaultsRecordedAt(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewMoodStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "mood_tracking"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := &models.MoodEntry{UserID: "u1", Mood: "tired", Intensity: 3}
	require.NoError(t, s.Create(context.Background(), m))
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.RecordedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRecentIsOldestFirst(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewChatStore(gdb)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "chat_sessions" WHERE user_id = \$1 ORDER BY created_at DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "message", "sender", "created_at"}).
			AddRow("m3", "u1", "anytime", models.SenderAI, now).
			AddRow("m2", "u1", "thanks", models.SenderUser, now.Add(-time.Minute)).
			AddRow("m1", "u1", "hello", models.SenderUser, now.Add(-2*time.Minute)))

	out, err := s.Recent(context.Background(), "u1", 3)

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatClear(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewChatStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "chat_sessions" WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := s.Clear(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentReportListOrder(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewSentimentReportStore(gdb)

	mock.ExpectQuery(`SELECT \* FROM "sentiment_reports" WHERE user_id = \$1 ORDER BY date DESC,created_at DESC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "sentiment", "score"}).
			AddRow("r2", "u1", "positive", 0.8))

	out, err := s.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.8, out[0].Score, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentReportDeleteNotOwned(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewSentimentReportStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "sentiment_reports" WHERE id = \$1 AND user_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.ErrorIs(t, s.Delete(context.Background(), "r1", "u9"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
