package database

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	files := fstest.MapFS{
		"002_second.up.sql":  {Data: []byte("SELECT 2")},
		"001_first.up.sql":   {Data: []byte("SELECT 1")},
		"001_first.down.sql": {Data: []byte("SELECT -1")},
		"README.md":          {Data: []byte("ignored")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_first.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("001_first.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT EXISTS").WithArgs("002_second.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err = RunMigrations(context.Background(), mock, files, discardLogger())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RollsBackOnFailure(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	files := fstest.MapFS{
		"001_broken.up.sql": {Data: []byte("BROKEN SQL")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_broken.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("BROKEN SQL").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, files, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_broken.up.sql")
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
