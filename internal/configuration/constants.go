package configuration

import "time"

const AppName = "edgeguard"

// One-time code policy. These are fixed and not configurable.
const (
	MFACodeTTL        = 5 * time.Minute
	MFAResendThrottle = 60 * time.Second
	MFAMaxAttempts    = 5
)

const MFACodeSubject = "Your 2FA code"

// Shared cache keys and leases. Worker locks are refreshed well before they lapse.
const (
	CacheAppRateLimitKey  = "app:ratelimit:%s"
	CacheAppWorkerLockKey = "app:worker:lock:%s" //nolint:gosec // not a credential

	RateLimitWindow   = time.Minute
	WorkerLockTTL     = 60 * time.Second
	WorkerLockRefresh = 20 * time.Second
)

// Telemetry ingestion headers.
const (
	HeaderDeviceID  = "X-Device-Id"
	HeaderSignature = "X-Signature"
)

const DefaultIngestMaxBodyBytes = 64 * 1024

const (
	AuthModeUnverified = "unverified"
	AuthModeOIDC       = "oidc"
)

// Store backends.
const (
	StorePostgREST = "postgrest"
	StoreSQL       = "sql"
	StoreRedis     = "redis"
	StoreMemory    = "memory"
)

var ArrayConfigFields = []string{
	"app.allowed_origins",
	"store.redis.hosts",
	"store.admins",
	"cache.redis.hosts",
	"cache.valkey.hosts",
}

var ConfigFileSearchPaths = []string{
	"./config.yaml",
	"templates/config.yaml",
}
