package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"edgeguard/internal/models"
	"edgeguard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *store.SQLStore {
	t.Helper()
	db := InitDB(models.SQLConfiguration{
		Driver: "sqlite",
		Name:   filepath.Join(t.TempDir(), "edgeguard.db"),
	})
	s := store.NewSQLStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrations_SQLiteRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.UnixMilli(time.Now().UnixMilli())

	require.NoError(t, s.DB.Exec("INSERT INTO admins (uid) VALUES (?)", "admin-1").Error)

	ok, err := s.IsAdmin(ctx, "admin-1")
	require.NoError(t, err)
	assert.True(t, ok)

	challenge := models.PendingChallenge{CodeDigest: "d1", ExpiresAt: now.Add(5 * time.Minute), LastSentAt: now}
	require.NoError(t, s.UpsertPending(ctx, "admin-1", challenge))

	challenge.Attempts = 2
	require.NoError(t, s.UpsertPending(ctx, "admin-1", challenge), "second upsert must merge, not fail")

	got, err := s.GetPending(ctx, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Attempts)
	assert.True(t, got.ExpiresAt.Equal(challenge.ExpiresAt))

	require.NoError(t, s.UpsertVerified(ctx, "admin-1", models.VerifiedState{State: models.VerifiedStateOK, UpdatedAt: now}))
	state, err := s.GetVerified(ctx, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.VerifiedStateOK, state.State)

	deleted, err := s.DeleteExpiredPending(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestMigrations_SQLiteTelemetry(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now()
	gas := 41.5

	require.NoError(t, s.EnsureDevice(ctx, models.Device{ID: "dev-1", CreatedAt: now}))
	require.NoError(t, s.EnsureDevice(ctx, models.Device{ID: "dev-1", CreatedAt: now}))
	require.NoError(t, s.UpsertDeviceStatus(ctx, models.DeviceStatus{DeviceID: "dev-1", LastSeen: now, Buzzer: true}))
	require.NoError(t, s.UpsertDeviceStatus(ctx, models.DeviceStatus{DeviceID: "dev-1", LastSeen: now, Buzzer: false}))
	require.NoError(t, s.InsertReading(ctx, models.Reading{DeviceID: "dev-1", Timestamp: now, GasValue: &gas, KeypadStatus: "ok"}))
	require.NoError(t, s.InsertEvent(ctx, models.DeviceEvent{DeviceID: "dev-1", Timestamp: now, Type: models.EventTypeKeypad, Value: "ok"}))

	var devices, readings int64
	require.NoError(t, s.DB.Table("devices").Count(&devices).Error)
	require.NoError(t, s.DB.Table("readings").Count(&readings).Error)
	assert.Equal(t, int64(1), devices)
	assert.Equal(t, int64(1), readings)

	var buzzer bool
	require.NoError(t, s.DB.Raw("SELECT buzzer FROM device_status WHERE device_id = ?", "dev-1").Scan(&buzzer).Error)
	assert.False(t, buzzer)
}
