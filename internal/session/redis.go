package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:v1:"

// RedisStore persists sessions in Redis with a per-key TTL, so expiry is
// mostly Redis' problem; DeleteExpired exists to satisfy Store and is a no-op.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(rawURL)

	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wraps an existing client; used by tests.
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess)

	if err != nil {
		return err
	}

	ttl := time.Until(sess.ExpiresAt)

	if ttl <= 0 {
		ttl = time.Second
	}

	return s.rdb.Set(ctx, redisKeyPrefix+sess.ID, payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}

		return Session{}, err
	}

	var sess Session

	if err := json.Unmarshal(raw, &sess); err != nil {
		// corrupted record: discard rather than propagate
		_ = s.rdb.Del(ctx, redisKeyPrefix+id).Err()
		return Session{}, ErrNotFound
	}

	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+id).Err()
}

func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
