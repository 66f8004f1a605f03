package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL", "LOG_FILE", "DATA_DIR", "SAVE_DIR",
	"SAVE_BACKEND", "REDIS_URL", "CITY_ZONES", "START_LOCATION", "RNG_SEED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./player_data", cfg.SaveDir)
	assert.Equal(t, BackendFile, cfg.SaveBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, []string{"Eldoria", "Riverford"}, cfg.CityZones)
	assert.Equal(t, "generic_start_room", cfg.StartLocation)
	assert.Zero(t, cfg.RNGSeed)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("SAVE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("CITY_ZONES", " Ashford , ,Riverford")
	t.Setenv("RNG_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, BackendRedis, cfg.SaveBackend)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, []string{"Ashford", "Riverford"}, cfg.CityZones)
	assert.Equal(t, int64(42), cfg.RNGSeed)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"log level", "LOG_LEVEL", "loud"},
		{"backend", "SAVE_BACKEND", "postgres"},
		{"port", "PORT", "http"},
		{"port range", "PORT", "70000"},
		{"seed", "RNG_SEED", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
