package mapping

import (
	"context"
	"fmt"
	"time"

	"github.com/beaconbay/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the hash holding the mapping.
const DefaultRedisKey = "beaconbay:mapping"

// RedisStore keeps the mapping in a Redis hash, one field per device.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          0,
		PoolSize:    10,
		MaxRetries:  3,
		DialTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client, key), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Get(ctx context.Context) (models.Mapping, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	return models.Mapping(fields), nil
}

// Set replaces the hash atomically.
func (s *RedisStore) Set(ctx context.Context, m models.Mapping) error {
	m = Normalize(m)
	values := make(map[string]interface{}, len(m))
	for id, label := range m {
		values[id] = label
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear mapping: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
