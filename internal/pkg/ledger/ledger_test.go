package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return NewStore(db), mock
}

func TestInsertUpsertsOnDuplicateToken(t *testing.T) {
	store, mock := newTestStore(t)

	// Two logins in the same second mint identical token strings; the second
	// insert must not fail on the unique index.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `refresh_tokens`.*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.Insert(context.Background(), "u1", "tok", time.Now().Add(time.Hour)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByTokenMiss(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT .* FROM `refresh_tokens`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at"}))

	_, err := store.FindByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByTokenRemovesRowOutright(t *testing.T) {
	store, mock := newTestStore(t)

	// Revocation must issue a real DELETE; a soft-delete tombstone would keep
	// the token's slot in the unique index occupied.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `refresh_tokens`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := store.DeleteByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `refresh_tokens`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	removed, err = store.DeleteByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateLosesRaceWhenOldRowGone(t *testing.T) {
	store, mock := newTestStore(t)

	// The delete touches zero rows: a concurrent rotation already consumed the
	// old token. Nothing is inserted and the transaction rolls back.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `refresh_tokens`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.Rotate(context.Background(), "old", "u1", "new", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateReplacesRow(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `refresh_tokens`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `refresh_tokens`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Rotate(context.Background(), "old", "u1", "new", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateReissuesIdenticalTokenString(t *testing.T) {
	store, mock := newTestStore(t)

	// A refresh in the same second the old token was issued rotates to a
	// byte-identical token. The hard delete frees the unique slot, so the
	// insert of the same string succeeds.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `refresh_tokens`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `refresh_tokens`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Rotate(context.Background(), "tok", "u1", "tok", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeExpired(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `refresh_tokens`").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	purged, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, purged)
}
