package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("REGISTRO_ADDR", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Database.TxTimeout)
	assert.False(t, cfg.Billing.SubscriptionGate)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REGISTRO_ADDR", ":9090")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("SUBSCRIPTION_GATE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_MAX_OPEN_CONNS", "40")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.True(t, cfg.Billing.SubscriptionGate)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 40, cfg.Database.MaxOpenConns)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_TTL")
	assert.Contains(t, err.Error(), "DB_MAX_OPEN_CONNS")
}

func TestFromEnvProductionSafeguards(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("COOKIE_SECURE", "false")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
	assert.Contains(t, err.Error(), "COOKIE_SECURE")
}
