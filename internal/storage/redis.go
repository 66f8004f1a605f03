package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/storage"
)

const (
	redisPrefix         = "textland:"
	redisCharacterIndex = redisPrefix + "characters"
)

// RedisStore keeps each character's save in a hash and its events in a
// list. A set indexes every saved character key.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStore implements Store interface
var _ storage.Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. redisURL may be a bare
// host:port or a redis:// URL.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redisOptions(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisStore{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

func redisOptions(redisURL string) (*redis.Options, error) {
	if strings.Contains(redisURL, "://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		return opt, nil
	}
	if redisURL == "" {
		redisURL = "localhost:6379"
	}
	return &redis.Options{Addr: redisURL}, nil
}

func characterKey(key string) string { return redisPrefix + "character:" + key }
func eventsKey(key string) string    { return redisPrefix + "events:" + key }

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Character saves

func (r *RedisStore) SavePlayer(ctx context.Context, p *actor.Player) error {
	if p == nil {
		return errors.New("player cannot be nil")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	key := storage.SanitizeName(p.Name)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, characterKey(key), map[string]any{
			"name":     p.Name,
			"species":  p.Species,
			"class":    p.Class,
			"level":    p.Level,
			"data":     string(data),
			"saved_at": time.Now().UTC().Format(time.RFC3339),
		})
		pipe.SAdd(ctx, redisCharacterIndex, key)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save character", "character", key, "error", err)
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadPlayer(ctx context.Context, name string) (*actor.Player, error) {
	key := storage.SanitizeName(name)
	data, err := r.client.HGet(ctx, characterKey(key), "data").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrCharacterNotFound
		}
		r.logger.Error("Failed to load character", "character", key, "error", err)
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	return actor.UnmarshalPlayer([]byte(data))
}

func (r *RedisStore) ListCharacters(ctx context.Context) ([]storage.CharacterSummary, error) {
	keys, err := r.client.SMembers(ctx, redisCharacterIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	slices.Sort(keys)

	out := make([]storage.CharacterSummary, 0, len(keys))
	for _, key := range keys {
		vals, err := r.client.HMGet(ctx, characterKey(key), "name", "species", "class", "level").Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read character %s: %w", key, err)
		}
		if vals[0] == nil {
			r.logger.Warn("Character index entry has no save", "character", key)
			continue
		}
		summary := storage.CharacterSummary{Key: key, Name: fmt.Sprint(vals[0])}
		if s, ok := vals[1].(string); ok {
			summary.Species = s
		}
		if s, ok := vals[2].(string); ok {
			summary.Class = s
		}
		if s, ok := vals[3].(string); ok {
			summary.Level, _ = strconv.Atoi(s)
		}
		out = append(out, summary)
	}
	return out, nil
}

func (r *RedisStore) DeleteCharacter(ctx context.Context, name string) error {
	key := storage.SanitizeName(name)
	var deleted *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, characterKey(key))
		pipe.Del(ctx, eventsKey(key))
		pipe.SRem(ctx, redisCharacterIndex, key)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to delete character", "character", key, "error", err)
		return fmt.Errorf("failed to delete character: %w", err)
	}
	if deleted.Val() == 0 {
		return storage.ErrCharacterNotFound
	}
	return nil
}

// Event log

func (r *RedisStore) AppendEvent(ctx context.Context, character string, ev storage.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := r.client.RPush(ctx, eventsKey(storage.SanitizeName(character)), data).Err(); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *RedisStore) Events(ctx context.Context, character string) ([]storage.Event, error) {
	key := storage.SanitizeName(character)
	raw, err := r.client.LRange(ctx, eventsKey(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	events := make([]storage.Event, 0, len(raw))
	for _, line := range raw {
		var ev storage.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			r.logger.Warn("Skipping malformed event", "character", key, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
