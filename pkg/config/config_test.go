package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:4000/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, "users_web_session", cfg.Session.CookieName)
	assert.Equal(t, 2*time.Hour, cfg.CSRF.TTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://phoenix:4000/api/")
	t.Setenv("API_TIMEOUT", "750ms")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://dash.example.com, ,https://ops.example.com ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://phoenix:4000/api", cfg.API.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.API.Timeout)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Zero(t, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{"https://dash.example.com", "https://ops.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:     EnvDevelopment,
			API:     APIConfig{BaseURL: "http://localhost:4000/api", Timeout: time.Second},
			Session: SessionConfig{Store: SessionStoreMemory},
			CSRF:    CSRFConfig{Secret: defaultCSRFSecret},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative base url", mutate: func(c *Config) { c.API.BaseURL = "/api" }, errMsg: "not an absolute URL"},
		{name: "missing base url", mutate: func(c *Config) { c.API.BaseURL = "" }, errMsg: "API_BASE_URL is required"},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, errMsg: "API_TIMEOUT"},
		{name: "unknown store", mutate: func(c *Config) { c.Session.Store = "memcached" }, errMsg: "SESSION_STORE"},
		{name: "default secret in production", mutate: func(c *Config) { c.Env = EnvProduction }, errMsg: "must be changed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
