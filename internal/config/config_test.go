package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quoter-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/quoter",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	require.Equal(t, 10, cfg.CatalogLookupLimit)
	require.True(t, cfg.BundleForceOnMiss)
	require.Equal(t, "shinhan", cfg.LoyaltyIssuer)
	require.Equal(t, []string{"700000+", "1300000+"}, cfg.LoyaltyTiers)
	require.Equal(t, int64(70_000), cfg.LoyaltyMinPrice)
	require.Equal(t, int64(10_000), cfg.LoyaltyMonthlyReward)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":        "postgres://localhost/quoter",
		"REDIS_URL":           "redis://localhost:6379/0",
		"JWT_SECRET":          "test-secret",
		"PORT":                "9090",
		"BUNDLE_FORCE_ON_MISS": "false",
		"LOYALTY_TIERS":       "500000+",
		"CATALOG_LOOKUP_TIMEOUT": "750ms",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.False(t, cfg.BundleForceOnMiss)
	require.Equal(t, []string{"500000+"}, cfg.LoyaltyTiers)
	require.Equal(t, 750*time.Millisecond, cfg.LookupTimeout)
}

func TestLoadRequiresDatabase(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	})
	require.Error(t, err)
}
