package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edgeguard/internal/cache"
	"edgeguard/internal/configuration"
	"edgeguard/internal/identity"
	"edgeguard/internal/mfa"
	"edgeguard/internal/models"
	"edgeguard/internal/services"
	"edgeguard/internal/store"
	"edgeguard/internal/tests"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) NotifyFromTemplate(context.Context, string, string, string, any) error { return nil }

func newTestRouter(rateLimit int) http.Handler {
	memStore := store.NewMemoryStore("admin-uid")

	config := models.Configuration{
		App: models.AppConfiguration{
			AllowedOrigins:  []string{"*"},
			RateLimitPerMin: rateLimit,
		},
	}

	mfaService := services.MFAService{Challenger: &mfa.Challenger{
		Store:    memStore,
		Admins:   memStore,
		Decoder:  identity.NewUnverifiedDecoder(),
		Notifier: nopNotifier{},
	}}
	ingestService := services.IngestService{
		Store:        memStore,
		DeviceSecret: "secret",
		MaxBodyBytes: configuration.DefaultIngestMaxBodyBytes,
	}

	return NewRouter(config, cache.NewLocalCache(), mfaService, ingestService)
}

func TestRouter_Healthz(t *testing.T) {
	recorder := httptest.NewRecorder()
	newTestRouter(0).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	tests.AssertJSONResponse(t, recorder, http.StatusOK, models.HealthResponse{Status: "ok"})
}

func TestRouter_UnknownRoutes(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		path   string
	}{
		{name: "unknown path", method: http.MethodPost, path: "/nope"},
		{name: "wrong method on mfa", method: http.MethodGet, path: "/mfa/start"},
		{name: "wrong method on ingest", method: http.MethodGet, path: "/ingest"},
	}

	router := newTestRouter(0)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(tc.method, tc.path, nil))

			tests.AssertJSONResponse(t, recorder, http.StatusNotFound, map[string]string{"error": "Not found"})
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/ingest", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "x-device-id, x-signature")

	recorder := httptest.NewRecorder()
	newTestRouter(0).ServeHTTP(recorder, req)

	assert.Less(t, recorder.Code, http.StatusMultipleChoices)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	allowed := strings.ToLower(recorder.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, allowed, "x-device-id")
	assert.Contains(t, allowed, "x-signature")
}

func TestRouter_MFARateLimited(t *testing.T) {
	router := newTestRouter(1)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/mfa/start", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.7:5000"
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		return recorder
	}

	first := send()
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := send()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestRouter_IngestIsNotRateLimited(t *testing.T) {
	router := newTestRouter(1)

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.7:5000"
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	}
}

func TestStartSingletonWorker_RunsOnlyWithLock(t *testing.T) {
	localCache := cache.NewLocalCache()
	acquired, err := localCache.AcquireLock(context.Background(), "sweeper", "other-instance",
		configuration.WorkerLockTTL)
	require.NoError(t, err)
	require.True(t, acquired)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		startSingletonWorker(ctx, localCache, "this-instance", "sweeper", func(context.Context) {
			started <- struct{}{}
		})
		close(done)
	}()

	select {
	case <-started:
		t.Fatal("worker started while another instance held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("singleton loop did not stop on context cancellation")
	}
}

func TestStartSingletonWorker_StartsAndStops(t *testing.T) {
	localCache := cache.NewLocalCache()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go startSingletonWorker(ctx, localCache, "this-instance", "sweeper", func(workerCtx context.Context) {
		<-workerCtx.Done()
		close(stopped)
	})

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker context was not cancelled")
	}

	assert.Eventually(t, func() bool {
		acquired, err := localCache.AcquireLock(context.Background(), "sweeper", "next-instance",
			configuration.WorkerLockTTL)
		return err == nil && acquired
	}, time.Second, 10*time.Millisecond, "lock was not released on shutdown")
}
