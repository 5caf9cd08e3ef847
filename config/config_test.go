package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 3*time.Second, cfg.DebounceWindow)
	assert.Equal(t, time.Hour, cfg.CardCacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.PhotoURLTTL)
	assert.Equal(t, "local", cfg.StorageDriver)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("DEBOUNCE_SECONDS", "5")
	t.Setenv("CARD_CACHE_TTL", "30m")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("WORKER_COUNT", "not-a-number")

	cfg := NewConfig()

	assert.Equal(t, 5*time.Second, cfg.DebounceWindow)
	assert.Equal(t, 30*time.Minute, cfg.CardCacheTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Jakarta"}
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())

	cfg.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestNewConfig_FileSigningSecretFallsBackToJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt-only")
	assert.Equal(t, "jwt-only", NewConfig().FileSigningSecret)

	t.Setenv("FILE_SIGNING_SECRET", "files")
	assert.Equal(t, "files", NewConfig().FileSigningSecret)
}

func TestNewRedisClient_UsesConfig(t *testing.T) {
	client := NewRedisClient(&Config{RedisAddr: "redis.local:6380", RedisDB: 3})
	defer client.Close()

	assert.Equal(t, "redis.local:6380", client.Options().Addr)
	assert.Equal(t, 3, client.Options().DB)
}
