package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// KV implements the session engine's key-value contract on Redis. Used for
// recovery stage payloads and attempt markers when sessions may resume on
// a different node than the one they started on. Keys are written without
// expiry: markers must outlive any TTL and a staged result must survive
// until it is replayed.
type KV struct {
	client *redis.Client
	prefix string
}

func NewKV(client *redis.Client, prefix string) *KV {
	return &KV{client: client, prefix: prefix}
}

func (s *KV) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
