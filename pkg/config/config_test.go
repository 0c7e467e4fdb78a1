package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "default", cfg.Store.DocumentKey)
	assert.True(t, cfg.Store.SeedOnEmpty)
	assert.False(t, cfg.ScoreCache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.ScoreCache.TTL)
	assert.True(t, cfg.Exports.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "PostgreSQL")
	v.Set("SCORE_CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	v.Set("ENABLE_SCORE_CACHE", true)

	cfg := fromViper(v)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 10*time.Minute, cfg.ScoreCache.TTL)
	assert.True(t, cfg.ScoreCache.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestNormalizeDriver(t *testing.T) {
	assert.Equal(t, StoreDriverMemory, normalizeDriver("memory"))
	assert.Equal(t, StoreDriverPostgres, normalizeDriver("pg"))
	assert.Equal(t, StoreDriverSQLite, normalizeDriver(""))
	assert.Equal(t, StoreDriverSQLite, normalizeDriver("bolt"))
}
