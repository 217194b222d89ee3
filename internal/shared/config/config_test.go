package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint16(8080), cfg.HTTPPort)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, time.Minute, cfg.SweepEndedInterval)
	assert.Equal(t, 15*time.Minute, cfg.SweepEndingSoonInterval)
	assert.Equal(t, time.Hour, cfg.EndingSoonWindow)
	assert.False(t, cfg.RedisEnabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOCK_TIMEOUT", "500ms")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint16(9090), cfg.HTTPPort)
	assert.Equal(t, 500*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"log level":    {"LOG_LEVEL", "verbose"},
		"duration":     {"SWEEP_ENDED_INTERVAL", "soon"},
		"zero timeout": {"LOCK_TIMEOUT", "0s"},
		"batch size":   {"SWEEP_BATCH_SIZE", "0"},
		"ssl mode":     {"DB_SSLMODE", "sometimes"},
		"queue size":   {"NOTIFIER_QUEUE_SIZE", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     5433,
		DBUser:     "bidder",
		DBPassword: "p@ss word",
		DBName:     "auctions",
		DBSSLMode:  "disable",
	}
	assert.Equal(t, "postgres://bidder:p%40ss%20word@db:5433/auctions?sslmode=disable", cfg.PostgresDSN())
}
