package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
)

const sessionLiveKeyPrefix = "session:"

// LivenessRepository wraps the Redis fast-lookup store. The session
// lifecycle sets and clears the liveness flag; this pipeline only reads
// it, plus uses the same client for round-result caching.
type LivenessRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewLivenessRepository constructs the repository.
func NewLivenessRepository(client *redis.Client, logger *zap.Logger) *LivenessRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LivenessRepository{client: client, logger: logger}
}

// IsSessionLive reports whether the session's liveness flag exists.
func (r *LivenessRepository) IsSessionLive(ctx context.Context, sessionID string) (bool, error) {
	if r.client == nil {
		return false, nil
	}
	n, err := r.client.Exists(ctx, sessionLiveKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("liveness check %s: %w", sessionID, err)
	}
	return n > 0, nil
}

// GetCached retrieves and unmarshals a cached value.
func (r *LivenessRepository) GetCached(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// SetCached marshals and stores a value with a TTL.
func (r *LivenessRepository) SetCached(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops a cached entry. Failures are logged, not surfaced: a
// stale round result expires with its TTL anyway.
func (r *LivenessRepository) Invalidate(ctx context.Context, key string) {
	if r.client == nil {
		return
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the underlying Redis connection if present.
func (r *LivenessRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
