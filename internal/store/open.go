package store

import (
	"context"
	"fmt"

	"github.com/dkeye/Ludo/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Open builds the configured backend. The returned close func is never nil.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, func() error, error) {
	noClose := func() error { return nil }
	switch cfg.Backend {
	case BackendNone:
		return Nop{}, noClose, nil
	case BackendMemory, "":
		return NewMemoryStore(), noClose, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, noClose, fmt.Errorf("redis %s: %w", cfg.Addr, err)
		}
		log.Info().Str("module", "store").Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("redis connected")
		return NewRedisStore(client, cfg.KeyPrefix, cfg.TTL), client.Close, nil
	}
	return nil, noClose, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
