package database

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ForcesDriverSettings(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	cfg, err := Config("backoffice:secret@tcp(db:3306)/taskgig", paris)
	require.NoError(t, err)

	assert.True(t, cfg.ParseTime)
	assert.True(t, cfg.ClientFoundRows)
	assert.Equal(t, paris, cfg.Loc)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "taskgig", cfg.DBName)
}

func TestConfig_BadDSN(t *testing.T) {
	_, err := Config("not a dsn", nil)
	assert.Error(t, err)
}

func TestStatements(t *testing.T) {
	stmts := statements(schema)
	require.Len(t, stmts, 7)
	for _, s := range stmts {
		assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS")
	}
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range statements(schema) {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
