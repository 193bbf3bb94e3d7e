package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "APP_ENV", "LOG_LEVEL", "JWT_SECRET", "STORE_DRIVER", "DATABASE_URL", "CORS_ORIGINS",
	"DEFAULT_CREDITS", "GATEWAY_BASE_URL", "GATEWAY_KEY_ID", "GATEWAY_KEY_SECRET", "GATEWAY_TIMEOUT",
	"GATEWAY_MAX_RETRIES", "GENERATION_URL", "GENERATION_API_KEY", "GENERATION_TIMEOUT",
}

// isolate runs the test in an empty directory with every config variable cleared.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("GATEWAY_KEY_SECRET", "gw")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4001, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 50, cfg.DefaultCredits)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, uint64(2), cfg.Gateway.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Generation.Timeout)
	assert.True(t, cfg.Development())

	cost, ok := cfg.FeatureCosts.Cost("content_audit")
	require.True(t, ok)
	assert.Equal(t, 15, cost)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("GATEWAY_BASE_URL", "https://api.gateway.test/v1")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("GATEWAY_MAX_RETRIES", "5")
	t.Setenv("DEFAULT_CREDITS", "20")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.Development())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "https://api.gateway.test/v1", cfg.Gateway.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, uint64(5), cfg.Gateway.MaxRetries)
	assert.Equal(t, 20, cfg.DefaultCredits)
}

func TestLoad_RequiredValues(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		env   map[string]string
	}{
		{name: "jwt secret", unset: "JWT_SECRET"},
		{name: "database url", unset: "DATABASE_URL"},
		{name: "gateway secret", unset: "GATEWAY_KEY_SECRET"},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "negative credits", env: map[string]string{"DEFAULT_CREDITS": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			setRequired(t)
			if tt.unset != "" {
				os.Unsetenv(tt.unset)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MemoryDriverNeedsNoDatabase(t *testing.T) {
	isolate(t)
	setRequired(t)
	os.Unsetenv("DATABASE_URL")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
}

func TestLoad_FeatureCostsFromFile(t *testing.T) {
	dir := isolate(t)
	setRequired(t)
	yaml := "feature_costs:\n  content_audit: 3\n  thumbnail_ideas: 8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	cost, _ := cfg.FeatureCosts.Cost("content_audit")
	assert.Equal(t, 3, cost)
	cost, ok := cfg.FeatureCosts.Cost("thumbnail_ideas")
	require.True(t, ok)
	assert.Equal(t, 8, cost)
	cost, _ = cfg.FeatureCosts.Cost("script_generation")
	assert.Equal(t, 10, cost)
}

func TestLoad_NegativeFeatureCost(t *testing.T) {
	dir := isolate(t)
	setRequired(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("feature_costs:\n  content_audit: -2\n"), 0o600))

	_, err := Load()
	assert.Error(t, err)
}
