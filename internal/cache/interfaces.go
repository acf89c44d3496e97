package cache

import (
	"context"
	"time"
)

// ICache holds state shared between instances: request budgets and worker leases.
type ICache interface {
	// Allow counts one request for key and returns how long the caller should wait.
	// Zero means the request fits the per-minute budget.
	Allow(ctx context.Context, key string, perMinute int) (time.Duration, error)

	// AcquireLock takes the named lease for owner unless someone else holds it.
	AcquireLock(ctx context.Context, name string, owner string, ttl time.Duration) (bool, error)
	// RefreshLock extends the lease, but only while owner still holds it.
	RefreshLock(ctx context.Context, name string, owner string, ttl time.Duration) (bool, error)
	// ReleaseLock drops the lease if owner holds it.
	ReleaseLock(ctx context.Context, name string, owner string) error

	Close() error
}
