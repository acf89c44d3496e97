package workers

import (
	"context"
	"time"

	"edgeguard/internal/store"
)

const PendingSweeperName = "pending_sweeper"

// PendingSweeper removes challenges that expired more than Grace ago. Rows younger than
// that are kept so Verify can still answer "code expired" instead of "no pending code".
type PendingSweeper struct {
	Store       store.IMFAStore
	Grace       time.Duration
	RunInterval time.Duration
	Now         func() time.Time
}

func (w *PendingSweeper) periodic() Periodic {
	return Periodic{
		Name:     PendingSweeperName,
		Interval: w.RunInterval,
		Tasks:    []Task{{Name: "expired_pending", Run: w.sweepExpired}},
	}
}

func (w *PendingSweeper) Start(ctx context.Context) {
	w.periodic().Run(ctx)
}

func (w *PendingSweeper) sweepExpired(ctx context.Context) (int, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return w.Store.DeleteExpiredPending(ctx, now().Add(-w.Grace))
}
