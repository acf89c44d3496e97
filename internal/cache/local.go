package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	localLimiterIdle  = 30 * time.Minute
	localCleanupEvery = 10 * time.Minute
)

type localLimiter struct {
	limiter   *rate.Limiter
	perMinute int
	lastSeen  time.Time
}

type localLock struct {
	owner   string
	expires time.Time
}

// LocalCache is the in-process ICache used when no Redis or Valkey is configured.
// Its locks only coordinate goroutines of one instance.
type LocalCache struct {
	mu          sync.Mutex
	limiters    map[string]*localLimiter
	locks       map[string]localLock
	lastCleanup time.Time
	now         func() time.Time
}

func NewLocalCache() *LocalCache {
	return &LocalCache{
		limiters:    make(map[string]*localLimiter),
		locks:       make(map[string]localLock),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (c *LocalCache) getLimiter(identifier string, requestsPerMinute int, now time.Time) *rate.Limiter {
	l, exists := c.limiters[identifier]
	if exists && l.perMinute == requestsPerMinute {
		l.lastSeen = now
		return l.limiter
	}

	l = &localLimiter{
		limiter:   rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), max(requestsPerMinute, 1)),
		perMinute: requestsPerMinute,
		lastSeen:  now,
	}
	c.limiters[identifier] = l

	if now.Sub(c.lastCleanup) > localCleanupEvery {
		cutoff := now.Add(-localLimiterIdle)
		for id, limiter := range c.limiters {
			if limiter.lastSeen.Before(cutoff) {
				delete(c.limiters, id)
			}
		}
		c.lastCleanup = now
	}

	return l.limiter
}

// Allow reports the delay until a token frees up. Rejected requests do not consume budget.
func (c *LocalCache) Allow(_ context.Context, key string, perMinute int) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	reservation := c.getLimiter(key, perMinute, now).ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return 0, nil
	}
	reservation.CancelAt(now)
	return delay, nil
}

func (c *LocalCache) heldBy(name string, now time.Time) (string, bool) {
	current, held := c.locks[name]
	if !held || !now.Before(current.expires) {
		return "", false
	}
	return current.owner, true
}

func (c *LocalCache) AcquireLock(_ context.Context, name string, owner string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, held := c.heldBy(name, now); held {
		return false, nil
	}
	c.locks[name] = localLock{owner: owner, expires: now.Add(ttl)}
	return true, nil
}

func (c *LocalCache) RefreshLock(_ context.Context, name string, owner string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if holder, held := c.heldBy(name, now); !held || holder != owner {
		return false, nil
	}
	c.locks[name] = localLock{owner: owner, expires: now.Add(ttl)}
	return true, nil
}

func (c *LocalCache) ReleaseLock(_ context.Context, name string, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if holder, held := c.heldBy(name, c.now()); held && holder == owner {
		delete(c.locks, name)
	}
	return nil
}

func (c *LocalCache) Close() error {
	return nil
}
