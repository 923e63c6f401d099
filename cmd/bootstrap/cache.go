package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"petcare-booking/internal/infra/cache"
	"petcare-booking/internal/pkg/config"
	"petcare-booking/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var CacheModule = fx.Module("cache",
	fx.Provide(
		NewSlotCache,
	),
)

// NewSlotCache falls back to a no-op cache when REDIS_ADDR is empty. An
// unreachable Redis is logged, not fatal.
func NewSlotCache(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) shared.SlotCache {
	if cfg.Redis.Addr == "" {
		logger.Info("availability cache disabled")
		return cache.NopSlotCache{}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("redis unreachable, availability will be computed on every request", "addr", cfg.Redis.Addr, "error", err)
				return nil
			}
			logger.Info("availability cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.SlotTTL)
			return nil
		},
		OnStop: func(_ context.Context) error {
			return rdb.Close()
		},
	})

	return cache.NewRedisSlotCache(rdb, cfg.Redis.SlotTTL, logger)
}
