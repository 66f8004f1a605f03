// Package app wires configuration into the pieces every binary needs: the
// save store and engines over freshly loaded content.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jwebster45206/textland/internal/config"
	istorage "github.com/jwebster45206/textland/internal/storage"
	"github.com/jwebster45206/textland/pkg/content"
	"github.com/jwebster45206/textland/pkg/engine"
	"github.com/jwebster45206/textland/pkg/storage"
)

// OpenStore opens the save backend named by cfg.SaveBackend and checks it
// is reachable.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.SaveBackend {
	case config.BackendRedis:
		rs, err := istorage.NewRedisStore(cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		if err := rs.WaitForConnection(ctx); err != nil {
			rs.Close()
			return nil, err
		}
		return rs, nil
	default:
		fs, err := istorage.NewFileStore(cfg.SaveDir, logger)
		if err != nil {
			return nil, err
		}
		if err := fs.Ping(ctx); err != nil {
			return nil, err
		}
		return fs, nil
	}
}

// LoadWorld reads the content directory with the configured start location
// and city zones.
func LoadWorld(cfg *config.Config, logger *slog.Logger) (*content.World, error) {
	w, err := content.Load(cfg.DataDir, logger,
		content.WithStartLocation(cfg.StartLocation),
		content.WithCityZones(cfg.CityZones))
	if err != nil {
		return nil, fmt.Errorf("failed to load content from %s: %w", cfg.DataDir, err)
	}
	return w, nil
}

// EngineFactory returns a constructor for engines, each over its own world.
// With a fixed RNG seed every engine gets a distinct but reproducible source.
func EngineFactory(cfg *config.Config, store storage.Store, logger *slog.Logger) func() (*engine.Engine, error) {
	var n atomic.Int64
	return func() (*engine.Engine, error) {
		w, err := LoadWorld(cfg, logger)
		if err != nil {
			return nil, err
		}
		seed := cfg.RNGSeed + n.Add(1) - 1
		if cfg.RNGSeed == 0 {
			seed = time.Now().UnixNano()
		}
		return engine.New(w, logger,
			engine.WithStore(store),
			engine.WithRand(rand.New(rand.NewSource(seed)))), nil
	}
}
