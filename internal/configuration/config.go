package configuration

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"unicode"

	"edgeguard/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// splitList accepts "a,b", "a b" and "[a, b]".
func splitList(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// parseArrayFields turns list settings that arrived as plain strings, from the environment
// for instance, into slices. Lists from YAML are left alone.
func parseArrayFields(k *koanf.Koanf) {
	for _, field := range ArrayConfigFields {
		raw, isString := k.Get(field).(string)
		if !isString || raw == "" {
			continue
		}
		if err := k.Set(field, splitList(raw)); err != nil {
			zap.L().Error("Error parsing array field", zap.String("field", field), zap.Error(err))
		}
	}
}

// readEnvVars maps STORE__SQL__HOST to store.sql.host.
func readEnvVars(k *koanf.Koanf) {
	err := k.Load(env.Provider("", ".", func(s string) string {
		s = strings.ToLower(s)
		segments := strings.Split(s, "__")
		return strings.Join(segments, ".")
	}), nil)
	if err != nil {
		zap.L().Warn("Error loading environment variables", zap.Error(err))
	}

	parseArrayFields(k)
}

func readFileConfig(k *koanf.Koanf) error {
	filePath := os.Getenv("CONFIG_FILE_PATH")
	if filePath == "" {
		for _, path := range ConfigFileSearchPaths {
			if _, err := os.Stat(path); err == nil {
				filePath = path
				break
			}
		}
	}

	if filePath == "" {
		zap.L().Warn("No configuration file found")
		return nil
	}

	if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
		return fmt.Errorf("loading config file %s: %w", filePath, err)
	}
	zap.L().Info("Read configuration from file " + filePath)
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.profile":             ProfileDefault,
		"app.log_level":           "info",
		"app.port":                8080,
		"app.allowed_origins":     []string{"*"},
		"app.rate_limit_per_min":  30,
		"app.sweep_grace_hours":   24,
		"app.sweep_interval_mins": 60,

		"auth.mode": AuthModeUnverified,

		"activity.type": "none",

		"ingest.max_body_bytes": int64(DefaultIngestMaxBodyBytes),

		"tracing.sample_ratio": 1.0,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

func setIfMissing(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		_ = k.Set(key, value)
	}
}

func loadConditionalDefaults(k *koanf.Koanf) {
	switch k.String("store.type") {
	case StorePostgREST:
		setIfMissing(k, "store.postgrest.timeout_seconds", 10)
	case StoreSQL:
		setIfMissing(k, "store.sql.port", int32(5432))
		setIfMissing(k, "store.sql.sslmode", "disable")
	}
	if k.String("notifier.type") == "smtp" {
		setIfMissing(k, "notifier.smtp.enable_tls", false)
		setIfMissing(k, "notifier.smtp.skip_verify_tls", false)
	}
}

// Load reads defaults, then the YAML file, then the environment, and validates the result.
func Load() (models.Configuration, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return models.Configuration{}, fmt.Errorf("loading defaults: %w", err)
	}
	if err := readFileConfig(k); err != nil {
		return models.Configuration{}, err
	}
	readEnvVars(k)
	loadConditionalDefaults(k)

	var config models.Configuration
	err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "mapstructure"})
	if err != nil {
		return models.Configuration{}, fmt.Errorf("decoding config: %w", err)
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		return name
	})
	if err = validate.Struct(config); err != nil {
		return models.Configuration{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Read is Load for process start-up: a bad configuration is fatal.
func Read() models.Configuration {
	config, err := Load()
	if err != nil {
		zap.L().Fatal("Failed to read configuration", zap.Error(err))
	}
	return config
}
