package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "dev-secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "auth_token", cfg.Auth.CookieName)
	assert.Equal(t, 5, cfg.Auth.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginWindow)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "lead_dashboard", cfg.Mongo.Database)
	assert.Equal(t, 4, cfg.Audit.Workers)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   strings.Repeat("s", minSecretLength),
		"ENV":          "Production",
		"TOKEN_TTL":    "2h",
		"CORS_ORIGINS": "https://app.example.com,https://admin.example.com",
		"REDIS_DB":     "3",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"short secret in production", map[string]string{"JWT_SECRET": "short", "ENV": "production"}, "at least 32 bytes"},
		{"non positive ttl", map[string]string{"JWT_SECRET": "dev", "TOKEN_TTL": "0s"}, "TOKEN_TTL must be positive"},
		{"bootstrap email without password", map[string]string{"JWT_SECRET": "dev", "BOOTSTRAP_ADMIN_EMAIL": "root@example.com"}, "must be set together"},
		{"unparsable duration", map[string]string{"JWT_SECRET": "dev", "LOGIN_WINDOW": "soon"}, "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_BootstrapPair(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":               "dev",
		"BOOTSTRAP_ADMIN_EMAIL":    "root@example.com",
		"BOOTSTRAP_ADMIN_PASSWORD": "changeme123",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Administrator", cfg.Auth.BootstrapAdminName)
}
