// session/redis.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis with a TTL matching their expiry, so
// several service instances can share in-progress drafts.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisConfig configures ConnectRedis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix defaults to "signup:session:".
	KeyPrefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "signup:session:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// ConnectRedis dials Redis and pings it within ctx.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("session: redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client, cfg.KeyPrefix), nil
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, id string) (*Data, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var data Data
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	if time.Now().After(data.ExpiresAt) {
		return nil, ErrExpired
	}
	if data.Values == nil {
		data.Values = make(map[string]json.RawMessage)
	}
	return &data, nil
}

// Save implements Store. Already-expired data is not written.
func (s *RedisStore) Save(ctx context.Context, data *Data) error {
	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(data.ID), b, ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
