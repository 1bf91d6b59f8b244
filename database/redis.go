package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ummahconnect/community-backend/config"
)

// ConnectRedis opens the client used for invitation codes and pings it.
func ConnectRedis(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}

	log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("redis connected")
	return client, nil
}
