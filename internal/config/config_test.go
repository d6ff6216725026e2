package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.Auth.Required)
	assert.False(t, cfg.OTel.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Auth.Required)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 20, cfg.RateLimit.RPS)
}

func TestLoadRejectsBadSMTPPort(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SMTP_PORT", "abc")

	_, err := Load()
	assert.Error(t, err)
}
