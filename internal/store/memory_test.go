package store

import (
	"context"
	"testing"
	"time"

	"edgeguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PendingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	got, err := s.GetPending(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	challenge := models.PendingChallenge{CodeDigest: "d1", ExpiresAt: now.Add(time.Minute), LastSentAt: now}
	require.NoError(t, s.UpsertPending(ctx, "u1", challenge))

	challenge.Attempts = 3
	require.NoError(t, s.UpsertPending(ctx, "u1", challenge))

	got, err = s.GetPending(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Attempts)

	got.Attempts = 99
	again, _ := s.GetPending(ctx, "u1")
	assert.Equal(t, 3, again.Attempts, "returned challenge must be a copy")

	require.NoError(t, s.DeletePending(ctx, "u1"))
	require.NoError(t, s.DeletePending(ctx, "u1"), "deleting an absent challenge is a no-op")

	got, err = s.GetPending(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_DeleteExpiredPending(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.UpsertPending(ctx, "old", models.PendingChallenge{CodeDigest: "a", ExpiresAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.UpsertPending(ctx, "recent", models.PendingChallenge{CodeDigest: "b", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, s.UpsertPending(ctx, "live", models.PendingChallenge{CodeDigest: "c", ExpiresAt: now.Add(time.Minute)}))

	deleted, err := s.DeleteExpiredPending(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	for _, uid := range []string{"recent", "live"} {
		got, getErr := s.GetPending(ctx, uid)
		require.NoError(t, getErr)
		assert.NotNil(t, got, uid)
	}
}

func TestMemoryStore_VerifiedAndAdmins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("admin-1")

	ok, err := s.IsAdmin(ctx, "admin-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAdmin(ctx, "someone")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpsertVerified(ctx, "admin-1", models.VerifiedState{State: models.VerifiedStateOK, UpdatedAt: time.Now()}))
	state, err := s.GetVerified(ctx, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.VerifiedStateOK, state.State)

	require.NoError(t, s.DeleteVerified(ctx, "admin-1"))
	state, err = s.GetVerified(ctx, "admin-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestMemoryStore_Telemetry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.EnsureDevice(ctx, models.Device{ID: "dev-1", CreatedAt: now}))
	require.NoError(t, s.EnsureDevice(ctx, models.Device{ID: "dev-1", Label: "renamed", CreatedAt: now}))
	require.NoError(t, s.UpsertDeviceStatus(ctx, models.DeviceStatus{DeviceID: "dev-1", SystemArmed: true, LastSeen: now}))

	device, status, ok := s.Device("dev-1")
	require.True(t, ok)
	assert.Equal(t, "Device dev-1", device.Label, "an existing device is left untouched")
	assert.True(t, status.SystemArmed)

	require.NoError(t, s.InsertReading(ctx, models.Reading{DeviceID: "dev-1", Timestamp: now}))
	require.NoError(t, s.InsertEvent(ctx, models.DeviceEvent{DeviceID: "dev-1", Type: models.EventTypeKeypad, Value: "1234"}))
	assert.Len(t, s.Readings(), 1)
	assert.Len(t, s.Events(), 1)
}
