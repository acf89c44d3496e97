package store

import (
	"context"
	"time"

	"edgeguard/internal/models"
)

// IMFAStore persists one pending challenge and one verified marker per user.
// Writes are create-or-replace and the last writer wins; there is no compare-and-swap.
type IMFAStore interface {
	// GetPending returns nil, nil when no challenge exists for uid.
	GetPending(ctx context.Context, uid string) (*models.PendingChallenge, error)
	UpsertPending(ctx context.Context, uid string, challenge models.PendingChallenge) error
	// DeletePending is a no-op when no challenge exists for uid.
	DeletePending(ctx context.Context, uid string) error

	GetVerified(ctx context.Context, uid string) (*models.VerifiedState, error)
	UpsertVerified(ctx context.Context, uid string, state models.VerifiedState) error
	DeleteVerified(ctx context.Context, uid string) error

	// DeleteExpiredPending removes challenges whose expiry is before the given instant.
	DeleteExpiredPending(ctx context.Context, before time.Time) (int, error)
}

// IAdminDirectory answers whether a user id belongs to a privileged account.
type IAdminDirectory interface {
	IsAdmin(ctx context.Context, uid string) (bool, error)
}

// IAdminSeeder is implemented by backends that keep their own admin directory.
type IAdminSeeder interface {
	AddAdmin(ctx context.Context, uid string) error
}

// ITelemetryStore records signed device telemetry.
type ITelemetryStore interface {
	// EnsureDevice creates the device row; an existing device is not an error.
	EnsureDevice(ctx context.Context, device models.Device) error
	UpsertDeviceStatus(ctx context.Context, status models.DeviceStatus) error
	InsertReading(ctx context.Context, reading models.Reading) error
	InsertEvent(ctx context.Context, event models.DeviceEvent) error
}

// IStore is implemented by every backend.
type IStore interface {
	IMFAStore
	IAdminDirectory
	ITelemetryStore
	Close() error
}
