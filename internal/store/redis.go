package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client the store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps each match as one JSON value under <prefix>match:<id>.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client RedisClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(matchID string) string {
	return s.prefix + "match:" + matchID
}

func (s *RedisStore) Save(ctx context.Context, rec MatchRecord) error {
	if rec.MatchID == "" {
		return fmt.Errorf("save: empty match id")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.MatchID, err)
	}
	if err := s.client.Set(ctx, s.key(rec.MatchID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save %s: %w", rec.MatchID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, matchID string) (MatchRecord, error) {
	b, err := s.client.Get(ctx, s.key(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return MatchRecord{}, fmt.Errorf("load %s: %w", matchID, ErrMatchNotFound)
	}
	if err != nil {
		return MatchRecord{}, fmt.Errorf("load %s: %w", matchID, err)
	}
	var rec MatchRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return MatchRecord{}, fmt.Errorf("load %s: %w", matchID, err)
	}
	return rec, nil
}
