// Package cache provides the shared redis client. Redis is optional: with no
// address configured the client is nil and every redis-backed feature
// (admission count cache, per-tenant rate limiting) is off.
package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/staffhubhq/staffhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewRedis(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn("redis unreachable, degraded to direct reads",
					zap.String("addr", cfg.RedisAddr),
					zap.Error(err),
				)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return rdb.Close()
		},
	})
	return rdb
}

var Module = fx.Module("cache",
	fx.Provide(NewRedis),
)
