package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
)

// seenKeyTTL bounds how long ingest dedup markers live. The database unique
// constraint remains the source of truth; the marker only short-circuits
// repeat fetches of the same provider message.
const seenKeyTTL = 24 * time.Hour

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// MarkMessageSeen records a provider message ID and reports whether this call
// was the first to see it. Errors (including an unconfigured client) report
// first-sighting so ingest falls through to the database's conditional
// insert, which remains the source of truth.
func (r *Redis) MarkMessageSeen(ctx context.Context, messageID string) bool {
	if r == nil || r.Client == nil {
		return true
	}
	set, err := r.Client.SetNX(ctx, "triage:seen:"+messageID, 1, seenKeyTTL).Result()
	if err != nil {
		return true
	}
	return set
}

// ClearMessageSeen removes a dedup marker, used when assembly fails after the
// marker was set.
func (r *Redis) ClearMessageSeen(ctx context.Context, messageID string) {
	if r == nil || r.Client == nil {
		return
	}
	r.Client.Del(ctx, "triage:seen:"+messageID)
}
