package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

const redisIdemPrefix = "campuspulse:idem:"

// RedisIdempotency keeps idempotency records in Redis with a key TTL, so
// expiry is enforced by the server.
type RedisIdempotency struct {
	rdb *redis.Client
}

// NewRedisIdempotency wraps an existing client.
func NewRedisIdempotency(rdb *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{rdb: rdb}
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func redisIdemKey(scope, key string) string {
	return redisIdemPrefix + scope + ":" + key
}

func (s *RedisIdempotency) Get(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	raw, err := s.rdb.Get(ctx, redisIdemKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec domain.Idempotency
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	if rec.Expired(now) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Put stores rec with SET NX so only the first writer wins.
func (s *RedisIdempotency) Put(ctx context.Context, rec *domain.Idempotency) error {
	ttl := rec.ExpiresAt.Sub(rec.CreatedAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, redisIdemKey(rec.Scope, rec.Key), raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}
