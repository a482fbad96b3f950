package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewClient connects to redis and pings it once. Returns nil when addr is
// empty or the ping fails; callers treat a nil client as "cache disabled".
func NewClient(addr string) *redis.Client {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, course cache disabled")
		client.Close()
		return nil
	}

	log.Info().Str("addr", addr).Msg("redis connected")
	return client
}
