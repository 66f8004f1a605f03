package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Save backends
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	LogFile     string // Empty disables the rotating log file

	DataDir       string
	SaveDir       string
	SaveBackend   string
	RedisURL      string
	CityZones     []string
	StartLocation string
	RNGSeed       int64 // 0 seeds from the clock
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogFile:       os.Getenv("LOG_FILE"),
		DataDir:       getEnv("DATA_DIR", "./data"),
		SaveDir:       getEnv("SAVE_DIR", "./player_data"),
		SaveBackend:   strings.ToLower(getEnv("SAVE_BACKEND", BackendFile)),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		CityZones:     splitList(getEnv("CITY_ZONES", "Eldoria,Riverford")),
		StartLocation: getEnv("START_LOCATION", "generic_start_room"),
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.SaveBackend != BackendFile && cfg.SaveBackend != BackendRedis {
		return nil, fmt.Errorf("invalid SAVE_BACKEND %q: must be %q or %q", cfg.SaveBackend, BackendFile, BackendRedis)
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	if raw := os.Getenv("RNG_SEED"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RNG_SEED %q: %w", raw, err)
		}
		cfg.RNGSeed = seed
	}

	return cfg, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", level)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
