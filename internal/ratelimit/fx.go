package ratelimit

import (
	"github.com/redis/go-redis/v9"
	"github.com/staffhubhq/staffhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideLimiter(cfg config.Config, rdb *redis.Client, log *zap.Logger) *Limiter {
	return NewLimiter(NewTokenBucket(rdb), cfg.RateLimitRPS, cfg.RateLimitBurst, log)
}

var Module = fx.Module("ratelimit",
	fx.Provide(provideLimiter),
)
