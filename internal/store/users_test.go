package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	db, mock := newMock(t)
	users := NewUsers(db)

	cols := []string{"id", "role", "email", "password_hash", "full_name", "created_at"}
	mock.ExpectQuery(`FROM users WHERE email = \?`).
		WithArgs("admin@taskgig.test").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "administrator", "admin@taskgig.test", "$2a$10$hash", "Fatou Sow", testNow))
	mock.ExpectQuery(`FROM users WHERE id = \?`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(cols))

	u, err := users.FindByEmail(context.Background(), "admin@taskgig.test")
	require.NoError(t, err)
	assert.True(t, u.IsStaff())
	assert.Equal(t, "Fatou Sow", u.FullName)

	_, err = users.FindByID(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
	assert.Equal(t, `%a\_b\%c\\d%`, likePattern(` a_b%c\d `))
	assert.Equal(t, "ASC", direction("asc"))
	assert.Equal(t, "DESC", direction("anything"))
	assert.Equal(t, 0, offset(0, 20))
	assert.Equal(t, 40, offset(3, 20))

	var c conditions
	assert.Equal(t, "", c.where())
	c.add("a = ?", 1)
	c.add("b IN (?, ?)", 2, 3)
	assert.Equal(t, " WHERE a = ? AND b IN (?, ?)", c.where())
	assert.Equal(t, []any{1, 2, 3}, c.args)
}
