package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const identityKeyPrefix = "jeopardy:identity:"

// IdentityStore keeps the address-to-name mapping in Redis with a
// per-entry TTL, so identities survive a controller restart for as long as
// the entry lives. Lookups that race an expiry surface as a plain miss.
type IdentityStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdentityStore(client *redis.Client, ttl time.Duration) *IdentityStore {
	return &IdentityStore{client: client, ttl: ttl}
}

func (s *IdentityStore) Remember(ctx context.Context, addr, name string) error {
	return s.client.Set(ctx, identityKeyPrefix+addr, name, s.ttl).Err()
}

func (s *IdentityStore) Lookup(ctx context.Context, addr string) (string, bool, error) {
	name, err := s.client.Get(ctx, identityKeyPrefix+addr).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (s *IdentityStore) Forget(ctx context.Context, addr string) error {
	return s.client.Del(ctx, identityKeyPrefix+addr).Err()
}

func (s *IdentityStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, identityKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
