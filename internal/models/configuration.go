package models

type Configuration struct {
	App       AppConfiguration       `mapstructure:"app"       validate:"required"`
	Auth      AuthConfiguration      `mapstructure:"auth"      validate:"required"`
	Store     StoreConfiguration     `mapstructure:"store"     validate:"required"`
	Cache     CacheConfiguration     `mapstructure:"cache"`
	Notifier  NotifierConfiguration  `mapstructure:"notifier"  validate:"required"`
	Activity  ActivityConfiguration  `mapstructure:"activity"  validate:"required"`
	Ingest    IngestConfiguration    `mapstructure:"ingest"    validate:"required"`
	Tracing   TracingConfiguration   `mapstructure:"tracing"`
	Profiling ProfilingConfiguration `mapstructure:"profiling"`
}

type AppConfiguration struct {
	Profile           string   `mapstructure:"profile"             validate:"oneof=default api worker"`
	LogLevel          string   `mapstructure:"log_level"           validate:"oneof=debug info warn error fatal panic"`
	Port              int      `mapstructure:"port"                validate:"gte=80,lte=65535"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"     validate:"required"`
	RateLimitPerMin   int      `mapstructure:"rate_limit_per_min"  validate:"gte=0"`
	SweepGraceHours   int      `mapstructure:"sweep_grace_hours"   validate:"gte=1,lte=720"`
	SweepIntervalMins int      `mapstructure:"sweep_interval_mins" validate:"gte=1,lte=1440"`
}

// AuthConfiguration selects how identity tokens are decoded before the MFA flow trusts them.
type AuthConfiguration struct {
	// Mode is "unverified" (payload decode only) or "oidc" (signature, issuer and audience checked).
	Mode     string `mapstructure:"mode"     validate:"required,oneof=unverified oidc"`
	Audience string `mapstructure:"audience"`
	Issuer   string `mapstructure:"issuer"   validate:"required_if=Mode oidc"`
}

type StoreConfiguration struct {
	Type      string                  `mapstructure:"type"      validate:"required,oneof=postgrest sql redis memory"`
	PostgREST *PostgRESTConfiguration `mapstructure:"postgrest" validate:"required_if=Type postgrest"`
	SQL       *SQLConfiguration       `mapstructure:"sql"       validate:"required_if=Type sql"`
	Redis     *RedisConfiguration     `mapstructure:"redis"     validate:"required_if=Type redis"`
	// Admins are added to the admin directory at start-up. Only the redis and memory
	// backends keep their directory themselves; postgrest and sql read the admins table.
	Admins []string `mapstructure:"admins"`
}

type PostgRESTConfiguration struct {
	URL            string `mapstructure:"url"              validate:"required,http_url"`
	ServiceRoleKey string `mapstructure:"service_role_key" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"  validate:"gte=1,lte=60"`
}

type SQLConfiguration struct {
	Driver   string `mapstructure:"driver"   validate:"required,oneof=postgres sqlite"`
	Host     string `mapstructure:"host"     validate:"required_if=Driver postgres"`
	Port     int32  `mapstructure:"port"     validate:"gte=0,lte=65535"`
	User     string `mapstructure:"user"     validate:"required_if=Driver postgres"`
	Password string `mapstructure:"password" validate:"required_if=Driver postgres"`
	Name     string `mapstructure:"name"     validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfiguration struct {
	Hosts         []string `mapstructure:"hosts"           validate:"required,min=1"`
	Password      string   `mapstructure:"password"`
	TLSEnabled    bool     `mapstructure:"tls_enabled"`
	TLSServerName string   `mapstructure:"tls_server_name"`
}

// CacheConfiguration is optional. Without it rate limits and worker locks are kept in process.
type CacheConfiguration struct {
	Type   string              `mapstructure:"type"   validate:"omitempty,oneof=redis valkey"`
	Redis  *RedisConfiguration `mapstructure:"redis"  validate:"required_if=Type redis"`
	Valkey *RedisConfiguration `mapstructure:"valkey" validate:"required_if=Type valkey"`
}

type MailerConfiguration struct {
	Host          string `mapstructure:"host"            validate:"required"`
	Port          int    `mapstructure:"port"            validate:"required"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Sender        string `mapstructure:"sender"          validate:"required"`
	EnableTLS     bool   `mapstructure:"enable_tls"`
	SkipVerifyTLS bool   `mapstructure:"skip_verify_tls"`
}

type BrevoConfiguration struct {
	APIKey  string `mapstructure:"api_key"  validate:"required"`
	Sender  string `mapstructure:"sender"   validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,http_url"`
}

type NotifierConfiguration struct {
	Type       string                           `mapstructure:"type"       validate:"required,oneof=smtp brevo filesystem"`
	SMTP       *MailerConfiguration             `mapstructure:"smtp"       validate:"required_if=Type smtp"`
	Brevo      *BrevoConfiguration              `mapstructure:"brevo"      validate:"required_if=Type brevo"`
	Filesystem *FilesystemNotifierConfiguration `mapstructure:"filesystem" validate:"required_if=Type filesystem"`
}

type FilesystemNotifierConfiguration struct {
	Directory string `mapstructure:"directory" validate:"required"`
}

type ActivityConfiguration struct {
	Type       string                           `mapstructure:"type"       validate:"required,oneof=none filesystem"`
	Filesystem *FilesystemActivityConfiguration `mapstructure:"filesystem" validate:"required_if=Type filesystem"`
}

type FilesystemActivityConfiguration struct {
	Directory string `mapstructure:"directory" validate:"required"`
}

type IngestConfiguration struct {
	DeviceSecret string `mapstructure:"device_secret"  validate:"required"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" validate:"gte=1"`
}

type TracingConfiguration struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"     validate:"required_if=Enabled true"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

type ProfilingConfiguration struct {
	Enabled   bool   `mapstructure:"enabled"`
	ServerURL string `mapstructure:"server_url" validate:"required_if=Enabled true"`
}
