package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_USE_TRANSACTIONS", "")
	t.Setenv("ERRORS_EXPOSE_INTERNAL", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.True(t, cfg.Mongo.UseTransactions)
	assert.True(t, cfg.Errors.ExposeInternal)
	assert.Equal(t, "admin.events", cfg.AMQP.Exchange)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MONGO_USE_TRANSACTIONS", "false")
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "15")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("MONGO_CONNECT_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.False(t, cfg.Mongo.UseTransactions)
	assert.Equal(t, 15, cfg.Auth.TokenTTLMinutes)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeoutDuration())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	assert.Error(t, err)
}
