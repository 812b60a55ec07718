package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"ENV", "LOG_LEVEL", "PORT", "API_BASE_URL", "STORAGE_PROVIDER", "STORAGE_NAMESPACE", "COOKIE_SECURE", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := configFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, uint16(3000), cfg.Port)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, "esans", cfg.Storage.Namespace)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Hour, cfg.Session.IdleTimeout)
	assert.False(t, cfg.Domain.Secure, "dev cookies are not Secure by default")
	assert.Empty(t, cfg.Domain.AllowedOrigins)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("API_BASE_URL", "https://api.esans.test/api/")
	t.Setenv("STORAGE_PROVIDER", "redis")
	t.Setenv("SESSION_IDLE_MINUTES", "15")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://esans.com.tr, ,https://www.esans.com.tr")

	cfg, err := configFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel, "invalid level falls back to info")
	assert.Equal(t, "https://api.esans.test/api", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "redis", cfg.Storage.Provider)
	assert.Equal(t, 15*time.Minute, cfg.Session.IdleTimeout)
	assert.InDelta(t, 2.5, cfg.Limits.RPS, 0.0001)
	assert.True(t, cfg.Domain.Secure)
	assert.Equal(t, []string{"https://esans.com.tr", "https://www.esans.com.tr"}, cfg.Domain.AllowedOrigins)
}

func TestConfigFromEnv_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"namespace with colon", map[string]string{"STORAGE_NAMESPACE": "es:ans"}},
		{"r2 in prod without account", map[string]string{"ENV": "prod", "STORAGE_PROVIDER": "r2", "R2_ACCOUNT_ID": ""}},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := configFromEnv()
			assert.Error(t, err)
		})
	}
}
