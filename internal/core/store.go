package core

import (
	"context"

	"edgeguard/internal/cache"
	"edgeguard/internal/configuration"
	"edgeguard/internal/database"
	"edgeguard/internal/models"
	"edgeguard/internal/store"

	"go.uber.org/zap"
)

func NewStore(ctx context.Context, config models.StoreConfiguration) store.IStore {
	var s store.IStore

	switch config.Type {
	case configuration.StorePostgREST:
		s = store.NewPostgRESTStore(*config.PostgREST)
	case configuration.StoreSQL:
		s = store.NewSQLStore(database.InitDB(*config.SQL))
	case configuration.StoreRedis:
		client, err := cache.NewClient(*config.Redis)
		if err != nil {
			zap.L().Fatal("Failed to connect to redis store", zap.Error(err))
		}
		s = store.NewRedisStore(client)
	case configuration.StoreMemory:
		zap.L().Warn("Using in-memory store, state is lost on restart")
		s = store.NewMemoryStore()
	default:
		zap.L().Fatal("Unknown store type", zap.String("type", config.Type))
		return nil
	}

	if err := SeedAdmins(ctx, s, config.Admins); err != nil {
		zap.L().Fatal("Failed to seed admins", zap.Error(err))
	}
	return s
}

// SeedAdmins adds uids to backends that own their admin directory. Others are left alone
// and a configured list is reported as ignored.
func SeedAdmins(ctx context.Context, s store.IStore, uids []string) error {
	if len(uids) == 0 {
		return nil
	}

	seeder, ok := s.(store.IAdminSeeder)
	if !ok {
		zap.L().Warn("Store reads admins from its own table, ignoring store.admins", zap.Int("admins", len(uids)))
		return nil
	}

	for _, uid := range uids {
		if err := seeder.AddAdmin(ctx, uid); err != nil {
			return err
		}
	}
	zap.L().Info("Seeded admins", zap.Int("admins", len(uids)))
	return nil
}
