package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/config"
)

// Redis holds the shared go-redis client. The bot touches Redis only when
// SESSION_BACKEND selects it; the client is created unconditionally so the
// readiness probe can report on a configured-but-unreachable instance.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis. An unreachable server is a warning at
// startup, not a failure: intake sessions on the redis backend will error
// until it recovers, and readiness reflects that.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable; redis-backed intake sessions will fail until it recovers",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity for the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
