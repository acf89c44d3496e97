package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"edgeguard/internal/configuration"
	"edgeguard/internal/core"
	"edgeguard/internal/mfa"
	"edgeguard/internal/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))

	config := configuration.Read()
	core.NewLogger(config.App.LogLevel)
	defer func() { _ = zap.L().Sync() }()

	profile, err := configuration.GetProfile(config.App.Profile)
	if err != nil {
		zap.L().Fatal("Failed to load profile", zap.Error(err))
	}
	zap.L().Info("Loaded profile", zap.String("profile", profile.Name))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := core.NewTracing(ctx, config.Tracing)
	if err != nil {
		zap.L().Fatal("Failed to initialize tracing", zap.Error(err))
	}
	shutdownProfiler, err := core.NewProfiler(config.Profiling, profile.Name)
	if err != nil {
		zap.L().Fatal("Failed to initialize profiler", zap.Error(err))
	}

	store := core.NewStore(ctx, config.Store)
	cache := core.NewCache(config.Cache)
	activityLogger := core.NewActivityLogger(config.Activity)

	appIdentity := uuid.New().String()

	if profile.Workers.AnyEnabled() {
		core.StartWorkers(ctx, profile, config, store, cache, appIdentity)
	}

	if profile.HTTPServer {
		mfaNotifier, notifierErr := core.NewNotifier(config.Notifier)
		if notifierErr != nil {
			zap.L().Fatal("Failed to initialize notifier", zap.Error(notifierErr))
		}

		challenger := &mfa.Challenger{
			Store:          store,
			Admins:         store,
			Decoder:        core.NewDecoder(ctx, config.Auth),
			Notifier:       mfaNotifier,
			ActivityLogger: activityLogger,
			Audience:       config.Auth.Audience,
		}

		router := core.NewRouter(
			config,
			cache,
			services.MFAService{Challenger: challenger},
			services.IngestService{
				Store:          store,
				ActivityLogger: activityLogger,
				DeviceSecret:   config.Ingest.DeviceSecret,
				MaxBodyBytes:   config.Ingest.MaxBodyBytes,
			},
		)

		server := core.NewHTTPServer(config, router)
		go func() {
			zap.L().Info("HTTP server starting", zap.Int("port", config.App.Port))
			if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				zap.L().Error("Failed to start the app", zap.Error(serveErr))
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("HTTP server shutdown failed", zap.Error(err))
		}
	} else {
		zap.L().Info("Running in worker-only mode")
		<-ctx.Done()
	}

	zap.L().Info("Shutting down")

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = shutdownTracing(flushCtx); err != nil {
		zap.L().Warn("Tracing shutdown failed", zap.Error(err))
	}
	if err = shutdownProfiler(flushCtx); err != nil {
		zap.L().Warn("Profiler shutdown failed", zap.Error(err))
	}
	if err = activityLogger.Close(); err != nil {
		zap.L().Warn("Activity logger close failed", zap.Error(err))
	}
	if err = cache.Close(); err != nil {
		zap.L().Warn("Cache close failed", zap.Error(err))
	}
	if err = store.Close(); err != nil {
		zap.L().Warn("Store close failed", zap.Error(err))
	}
}
