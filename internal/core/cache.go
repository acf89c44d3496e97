package core

import (
	c "edgeguard/internal/cache"
	"edgeguard/internal/models"

	"go.uber.org/zap"
)

// NewCache falls back to an in-process cache when none is configured. Worker locks are then
// only exclusive within this process.
func NewCache(config models.CacheConfiguration) c.ICache {
	var (
		cache c.ICache
		err   error
	)

	switch config.Type {
	case "redis":
		cache, err = c.NewRedisCache(*config.Redis)
	case "valkey":
		cache, err = c.NewValkeyCache(*config.Valkey)
	default:
		zap.L().Info("No shared cache configured, using local cache")
		return c.NewLocalCache()
	}

	if err != nil {
		zap.L().Fatal("Failed to initialize cache", zap.String("type", config.Type), zap.Error(err))
	}
	return cache
}
