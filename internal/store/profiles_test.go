package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisphere/internal/testutils"
)

var profileColumns = []string{"id", "username", "email", "password", "avatar_url", "full_name", "role", "created_at", "updated_at"}

func TestGetProfileMissingIsNil(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewProfileStore(gdb)

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(profileColumns))

	p, err := s.GetProfile(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetProfile(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewProfileStore(gdb)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("u1", "mei", "mei@uni.edu", "hash", "🐼", "Mei Lin", "user", now, now))

	p, err := s.GetProfile(context.Background(), "u1")

	require.NoError(t, err)
	author := p.Author()
	assert.Equal(t, "mei", author.Username)
	assert.Equal(t, "🐼", author.AvatarURL)
}

func TestGetByUsernameNotFound(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewProfileStore(gdb)

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows(profileColumns))

	_, err := s.GetByUsername(context.Background(), "ghost")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthors(t *testing.T) {
	gdb, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := NewProfileStore(gdb)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id IN \(\$1,\$2\)`).
		WithArgs("u1", "u2").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("u1", "mei", "mei@uni.edu", "hash", "🐼", "", "user", now, now))

	authors, err := s.Authors(context.Background(), []string{"u1", "u2"})

	require.NoError(t, err)
	assert.Len(t, authors, 1)
	assert.Equal(t, "mei", authors["u1"].Username)

	empty, err := s.Authors(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
