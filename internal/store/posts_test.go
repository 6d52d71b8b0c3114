package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisphere/internal/testutils"
)

func TestPostGetNotFound(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectQuery(`SELECT \* FROM "forum_posts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostListHotOrdersByScore(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectQuery(`SELECT \* FROM "forum_posts" WHERE category = \$1 ORDER BY score DESC,created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "score"}).
			AddRow("p2", "Hot", 9.5).
			AddRow("p1", "Cold", 0.2))

	out, err := s.List(context.Background(), SortHot, "study", 20, 0)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "p2", out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostIncrementViews(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "forum_posts" SET "views"=views \+ \$1 WHERE id = \$2`).
		WithArgs(1, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.IncrementViews(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostDeleteRemovesComments(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "forum_comments" WHERE post_id = \$1`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "forum_posts" WHERE id = \$1`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Delete(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostDeleteMissingRollsBack(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "forum_comments" WHERE post_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "forum_posts" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, s.Delete(context.Background(), "nope"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRecentSentimentsOldestFirst(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectQuery(`SELECT "sentiment" FROM "forum_posts" WHERE sentiment <> \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"sentiment"}).
			AddRow("negative").
			AddRow("neutral").
			AddRow("positive"))

	tags, err := s.RecentSentiments(context.Background(), 14)

	require.NoError(t, err)
	assert.Equal(t, []string{"positive", "neutral", "negative"}, tags)
}

func TestPostUpdateMissing(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "forum_posts" SET .* WHERE id = \$\d+`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := s.Update(context.Background(), "missing", map[string]interface{}{"title": "new"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostAddReactionIncrementsInPlace(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "forum_posts" SET "reactions"=jsonb_set\(COALESCE\(reactions, '\{\}'::jsonb\), ARRAY\[\$1\]::text\[\]`).
		WithArgs("heart", "heart", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT "reactions" FROM "forum_posts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"reactions"}).AddRow(`{"heart":3,"smile":1}`))

	out, err := s.AddReaction(context.Background(), "p1", "heart")

	require.NoError(t, err)
	assert.Equal(t, 3, out["heart"])
	assert.Equal(t, 1, out["smile"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostAddReactionMissingPost(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewPostStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "forum_posts" SET "reactions"=`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := s.AddReaction(context.Background(), "missing", "smile")
	assert.ErrorIs(t, err, ErrNotFound)
}
