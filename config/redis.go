package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"real-time-messenger/config/common"
	"real-time-messenger/config/logger"
)

// NewRedis returns nil when REDIS_ADDR is unset; rate limiting and the
// presence mirror are then disabled.
func NewRedis(cfg *common.Config, log *logger.AppLogger) (*redis.Client, error) {
	addr, password, db := cfg.GetRedisConfig()
	if addr == "" {
		log.Http.Info.Info().Msg("Redis not configured, running without rate limits and presence mirror")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	log.Http.Info.Info().Str("addr", addr).Msg("Connected to redis")
	return client, nil
}
