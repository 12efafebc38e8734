package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string

	CartTTL        time.Duration
	IdempotencyTTL time.Duration

	CatalogCacheTTL    time.Duration
	CatalogLookupLimit int
	LookupTimeout      time.Duration

	CircuitLookupMinReq      int
	CircuitLookupFailureRate float64
	CircuitLookupOpenFor     time.Duration

	BundleForceOnMiss bool

	LoyaltyIssuer        string
	LoyaltyTiers         []string
	LoyaltyMinPrice      int64
	LoyaltyMonthlyReward int64

	RateLimitPeriod   time.Duration
	RateLimitRequests int64

	Channels         []string
	CacheWarmSpec    string
	EventStream      string
	EventStreamMax   int64
	MutationLockTTL  time.Duration
	RequestBodyLimit int64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          k.String("JWT_ISSUER"),
		JWTAudience:        k.String("JWT_AUDIENCE"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CartTTL:        parseDuration(k.String("CART_TTL"), "168h"),
		IdempotencyTTL: parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "10m"),
		CatalogLookupLimit: intOrDefault(k, "CATALOG_LOOKUP_LIMIT", 10),
		LookupTimeout:      parseDuration(k.String("CATALOG_LOOKUP_TIMEOUT"), "2s"),

		CircuitLookupMinReq:      intOrDefault(k, "CIRCUIT_LOOKUP_MIN_REQUESTS", 10),
		CircuitLookupFailureRate: floatOrDefault(k, "CIRCUIT_LOOKUP_FAILURE_RATE", 0.5),
		CircuitLookupOpenFor:     parseDuration(k.String("CIRCUIT_LOOKUP_OPEN_FOR"), "30s"),

		BundleForceOnMiss: boolOrDefault(k.String("BUNDLE_FORCE_ON_MISS"), true),

		LoyaltyIssuer:        valueOrDefault(k.String("LOYALTY_ISSUER"), "shinhan"),
		LoyaltyTiers:         splitAndTrimDefault(k.String("LOYALTY_TIERS"), []string{"700000+", "1300000+"}),
		LoyaltyMinPrice:      int64OrDefault(k, "LOYALTY_MIN_PRICE", 70_000),
		LoyaltyMonthlyReward: int64OrDefault(k, "LOYALTY_MONTHLY_REWARD", 10_000),

		RateLimitPeriod:   parseDuration(k.String("RATE_LIMIT_PERIOD"), "1m"),
		RateLimitRequests: int64OrDefault(k, "RATE_LIMIT_REQUESTS", 300),

		Channels:         splitAndTrimDefault(k.String("QUOTER_CHANNELS"), []string{"default"}),
		CacheWarmSpec:    valueOrDefault(k.String("CACHE_WARM_CRON"), "@every 10m"),
		EventStream:      valueOrDefault(k.String("EVENT_STREAM"), "quoter:events"),
		EventStreamMax:   int64OrDefault(k, "EVENT_STREAM_MAXLEN", 10_000),
		MutationLockTTL:  parseDuration(k.String("CART_MUTATION_LOCK_TTL"), "10s"),
		RequestBodyLimit: int64OrDefault(k, "REQUEST_BODY_LIMIT", 1<<20),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func splitAndTrimDefault(value string, fallback []string) []string {
	parsed := splitAndTrim(value)
	if len(parsed) == 0 {
		return fallback
	}
	return parsed
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func intOrDefault(k *koanf.Koanf, key string, fallback int) int {
	if !k.Exists(key) || strings.TrimSpace(k.String(key)) == "" {
		return fallback
	}
	return k.Int(key)
}

func int64OrDefault(k *koanf.Koanf, key string, fallback int64) int64 {
	if !k.Exists(key) || strings.TrimSpace(k.String(key)) == "" {
		return fallback
	}
	return k.Int64(key)
}

func floatOrDefault(k *koanf.Koanf, key string, fallback float64) float64 {
	if !k.Exists(key) || strings.TrimSpace(k.String(key)) == "" {
		return fallback
	}
	return k.Float64(key)
}

func boolOrDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
