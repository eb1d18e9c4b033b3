package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadParkingConfigDefaults(t *testing.T) {
	t.Setenv("PARKING_HOLD_TTL", "")
	t.Setenv("PARKING_SWEEP_INTERVAL", "")
	cfg := LoadParkingConfig()
	assert.Equal(t, 15*time.Minute, cfg.HoldTTL)
	assert.Zero(t, cfg.SweepInterval)
}

func TestLoadParkingConfigRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("PARKING_HOLD_TTL", "-5m")
	t.Setenv("PARKING_SWEEP_INTERVAL", "30s")
	cfg := LoadParkingConfig()
	assert.Equal(t, 15*time.Minute, cfg.HoldTTL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
}

func TestLoadHoldLimitConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := LoadHoldLimitConfig()
		assert.Equal(t, 5, cfg.Max)
		assert.Equal(t, time.Minute, cfg.Window)
		assert.Equal(t, "memory", cfg.Backend)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("HOLD_RATE_LIMIT_MAX", "10")
		t.Setenv("HOLD_RATE_LIMIT_WINDOW", "2m")
		t.Setenv("HOLD_RATE_LIMIT_BACKEND", "redis")
		cfg := LoadHoldLimitConfig()
		assert.Equal(t, 10, cfg.Max)
		assert.Equal(t, 2*time.Minute, cfg.Window)
		assert.Equal(t, "redis", cfg.Backend)
	})

	t.Run("ClampsZero", func(t *testing.T) {
		t.Setenv("HOLD_RATE_LIMIT_MAX", "0")
		t.Setenv("HOLD_RATE_LIMIT_WINDOW", "garbage")
		cfg := LoadHoldLimitConfig()
		assert.Equal(t, 1, cfg.Max)
		assert.Equal(t, time.Minute, cfg.Window)
	})
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.InDelta(t, 0.5, cfg.RefillRate(), 1e-9)
}

func TestLoadEventsConfigURLPrecedence(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
	assert.Equal(t, "amqp://u:p@broker:5672/", LoadEventsConfig().URL)

	t.Setenv("RABBITMQ_URL", "amqp://primary:5672/")
	assert.Equal(t, "amqp://primary:5672/", LoadEventsConfig().URL)
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.Equal(t, 3, cfg.DB)
	assert.True(t, cfg.TLS)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	assert.Equal(t, "redis:6379", LoadRedisConfig().Addr)
}
