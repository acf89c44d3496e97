package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	c "edgeguard/internal/cache"
	"edgeguard/internal/configuration"
	"edgeguard/internal/handlers"
	m "edgeguard/internal/middlewares"
	"edgeguard/internal/models"
	"edgeguard/internal/services"
	"edgeguard/internal/store"
	"edgeguard/internal/workers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

func StartWorkers(
	ctx context.Context,
	profile models.Profile,
	config models.Configuration,
	mfaStore store.IMFAStore,
	cache c.ICache,
	appIdentity string,
) {
	startWorker(ctx, profile.Workers.PendingSweeper, workers.PendingSweeperName, cache, appIdentity,
		func(workerCtx context.Context) {
			worker := &workers.PendingSweeper{
				Store:       mfaStore,
				Grace:       time.Duration(config.App.SweepGraceHours) * time.Hour,
				RunInterval: time.Duration(config.App.SweepIntervalMins) * time.Minute,
			}
			worker.Start(workerCtx)
		})
}

func startWorker(
	ctx context.Context,
	mode models.WorkerMode,
	workerName string,
	cache c.ICache,
	appIdentity string,
	runWorker func(context.Context),
) {
	switch {
	case !mode.Runs():
		zap.L().Debug("Worker disabled", zap.String("worker", workerName))
	case mode == models.WorkerModeSingleton:
		go startSingletonWorker(ctx, cache, appIdentity, workerName, runWorker)
	default:
		go runWorker(ctx)
		zap.L().Info("Started worker", zap.String("worker", workerName))
	}
}

// startSingletonWorker runs the worker only while this instance holds its lease.
// Losing the lease stops the worker; the loop keeps trying to win it back.
func startSingletonWorker(
	ctx context.Context,
	cache c.ICache,
	instanceID string,
	workerName string,
	runWorker func(context.Context),
) {
	logger := zap.L().With(zap.String("worker", workerName), zap.String("instance", instanceID))
	ticker := time.NewTicker(configuration.WorkerLockRefresh)
	defer ticker.Stop()

	var cancelWorker context.CancelFunc
	defer func() {
		if cancelWorker == nil {
			return
		}
		cancelWorker()
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cache.ReleaseLock(releaseCtx, workerName, instanceID); err != nil {
			logger.Warn("Failed to release worker lock", zap.Error(err))
		}
	}()

	for {
		switch {
		case cancelWorker == nil:
			acquired, err := cache.AcquireLock(ctx, workerName, instanceID, configuration.WorkerLockTTL)
			if err != nil {
				logger.Error("Failed to acquire worker lock", zap.Error(err))
			} else if acquired {
				logger.Info("Acquired worker lock, starting worker")
				var workerCtx context.Context
				workerCtx, cancelWorker = context.WithCancel(ctx)
				go runWorker(workerCtx)
			}
		default:
			refreshed, err := cache.RefreshLock(ctx, workerName, instanceID, configuration.WorkerLockTTL)
			if err != nil || !refreshed {
				logger.Warn("Lost worker lock, stopping worker", zap.Error(err))
				cancelWorker()
				cancelWorker = nil
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// NewRouter builds the HTTP surface: the MFA endpoints behind the per-client rate limit,
// signed telemetry ingestion and a health probe.
func NewRouter(
	config models.Configuration,
	cache c.ICache,
	mfaService services.MFAService,
	ingestService services.IngestService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(m.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.App.AllowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			configuration.HeaderDeviceID,
			configuration.HeaderSignature,
		},
		MaxAge: 300,
	}))

	r.NotFound(handlers.NotFoundHandler)
	r.MethodNotAllowed(handlers.NotFoundHandler)

	r.Get("/healthz", handlers.HealthHandler)

	r.Route("/mfa", func(mfaRouter chi.Router) {
		mfaRouter.Use(m.RateLimit(cache, config.App.RateLimitPerMin))
		mfaRouter.Mount("/", mfaService.Routes())
	})

	r.Mount("/ingest", ingestService.Routes())

	return otelhttp.NewHandler(r, configuration.AppName)
}

func NewHTTPServer(config models.Configuration, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", config.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
