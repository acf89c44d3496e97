package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"edgeguard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return NewSQLStore(gormDB), mock
}

func TestSQLStore_GetPending(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.UnixMilli(1_700_000_300_000)
	lastSent := int64(1_700_000_000_000)

	t.Run("should map a stored row", func(t *testing.T) {
		s, mock := newMockSQLStore(t)
		rows := sqlmock.NewRows([]string{"uid", "code_hash", "expires_at", "attempts", "last_sent"}).
			AddRow("u1", "digest", expiresAt.UnixMilli(), 2, lastSent)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mfa_pending" WHERE uid = $1`)).
			WithArgs("u1", 1).
			WillReturnRows(rows)

		challenge, err := s.GetPending(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, challenge)
		assert.Equal(t, "digest", challenge.CodeDigest)
		assert.True(t, challenge.ExpiresAt.Equal(expiresAt))
		assert.Equal(t, 2, challenge.Attempts)
		assert.Equal(t, lastSent, challenge.LastSentAt.UnixMilli())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should return nil when absent", func(t *testing.T) {
		s, mock := newMockSQLStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mfa_pending" WHERE uid = $1`)).
			WithArgs("u1", 1).
			WillReturnRows(sqlmock.NewRows([]string{"uid"}))

		challenge, err := s.GetPending(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, challenge)
	})

	t.Run("should surface driver errors", func(t *testing.T) {
		s, mock := newMockSQLStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mfa_pending"`)).
			WillReturnError(sql.ErrConnDone)

		_, err := s.GetPending(ctx, "u1")
		assert.True(t, errors.Is(err, sql.ErrConnDone))
	})
}

func TestSQLStore_UpsertPending_UsesOnConflict(t *testing.T) {
	s, mock := newMockSQLStore(t)
	now := time.UnixMilli(1_700_000_000_000)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "mfa_pending" ("uid","code_hash","expires_at","attempts","last_sent") VALUES ($1,$2,$3,$4,$5) ON CONFLICT ("uid") DO UPDATE SET`)).
		WithArgs("u1", "digest", now.Add(5*time.Minute).UnixMilli(), 0, now.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpsertPending(context.Background(), "u1", models.PendingChallenge{
		CodeDigest: "digest",
		ExpiresAt:  now.Add(5 * time.Minute),
		LastSentAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_DeletePending(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "mfa_pending" WHERE uid = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, s.DeletePending(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_DeleteExpiredPending(t *testing.T) {
	s, mock := newMockSQLStore(t)
	before := time.UnixMilli(1_700_000_000_000)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "mfa_pending" WHERE expires_at < $1`)).
		WithArgs(before.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	deleted, err := s.DeleteExpiredPending(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, 4, deleted)
}

func TestSQLStore_IsAdmin(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "admins" WHERE uid = $1`)).
		WithArgs("admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "admins" WHERE uid = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := s.IsAdmin(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAdmin(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLStore_UpsertVerified(t *testing.T) {
	s, mock := newMockSQLStore(t)
	now := time.UnixMilli(1_700_000_000_000)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "mfa_state" ("uid","state","updated_at") VALUES ($1,$2,$3) ON CONFLICT ("uid") DO UPDATE SET`)).
		WithArgs("u1", models.VerifiedStateOK, now.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpsertVerified(context.Background(), "u1", models.VerifiedState{State: models.VerifiedStateOK, UpdatedAt: now})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_EnsureDevice_IgnoresConflicts(t *testing.T) {
	s, mock := newMockSQLStore(t)
	now := time.UnixMilli(1_700_000_000_000)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "devices" ("id","label","created_at") VALUES ($1,$2,$3) ON CONFLICT ("id") DO NOTHING`)).
		WithArgs("dev-1", "Device dev-1", now.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, s.EnsureDevice(context.Background(), models.Device{ID: "dev-1", CreatedAt: now}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
