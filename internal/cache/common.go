package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"edgeguard/internal/configuration"
	"edgeguard/internal/models"

	"github.com/redis/rueidis"
)

// Scripts keep each check-then-write atomic on the server.
var (
	fixedWindowScript = rueidis.NewLuaScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if count > tonumber(ARGV[2]) then
  return redis.call("PTTL", KEYS[1])
end
return 0`)

	refreshLockScript = rueidis.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseLockScript = rueidis.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)
)

// RueidisCache is the shared ICache for Redis and Valkey deployments.
type RueidisCache struct {
	client rueidis.Client
}

// NewClient opens a rueidis client. It is shared by the cache and the Redis store.
func NewClient(config models.RedisConfiguration) (rueidis.Client, error) {
	clientOption := rueidis.ClientOption{
		InitAddress: config.Hosts,
		Password:    config.Password,
	}

	if config.TLSEnabled {
		clientOption.TLSConfig = &tls.Config{
			ServerName: config.TLSServerName,
			MinVersion: tls.VersionTLS12,
		}
	}

	return rueidis.NewClient(clientOption)
}

func newRueidisCache(config models.RedisConfiguration, flavour string) (*RueidisCache, error) {
	client, err := NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", flavour, err)
	}
	return &RueidisCache{client: client}, nil
}

func NewRedisCache(config models.RedisConfiguration) (*RueidisCache, error) {
	return newRueidisCache(config, "redis")
}

func NewValkeyCache(config models.RedisConfiguration) (*RueidisCache, error) {
	return newRueidisCache(config, "valkey")
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func lockKey(name string) string {
	return fmt.Sprintf(configuration.CacheAppWorkerLockKey, name)
}

// Allow implements a fixed one-minute window per key.
func (r *RueidisCache) Allow(ctx context.Context, key string, perMinute int) (time.Duration, error) {
	wait, err := fixedWindowScript.Exec(ctx, r.client,
		[]string{fmt.Sprintf(configuration.CacheAppRateLimitKey, key)},
		[]string{millis(configuration.RateLimitWindow), strconv.Itoa(perMinute)},
	).AsInt64()
	if err != nil {
		return 0, err
	}
	if wait < 0 {
		// The key lost its expiry; wait out a full window.
		return configuration.RateLimitWindow, nil
	}
	return time.Duration(wait) * time.Millisecond, nil
}

func (r *RueidisCache) AcquireLock(ctx context.Context, name string, owner string, ttl time.Duration) (bool, error) {
	err := r.client.Do(ctx,
		r.client.B().Set().Key(lockKey(name)).Value(owner).Nx().Ex(ttl).Build(),
	).Error()
	if rueidis.IsRedisNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RueidisCache) RefreshLock(ctx context.Context, name string, owner string, ttl time.Duration) (bool, error) {
	extended, err := refreshLockScript.Exec(ctx, r.client,
		[]string{lockKey(name)},
		[]string{owner, millis(ttl)},
	).AsInt64()
	if err != nil {
		return false, err
	}
	return extended == 1, nil
}

func (r *RueidisCache) ReleaseLock(ctx context.Context, name string, owner string) error {
	return releaseLockScript.Exec(ctx, r.client, []string{lockKey(name)}, []string{owner}).Error()
}

func (r *RueidisCache) Close() error {
	r.client.Close()
	return nil
}
