package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walletgate/walletgate/ports"
)

// RedisRevocationStore is a Redis implementation of the revocation
// store, shared by all instances behind the same Redis.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

var _ ports.RevocationStore = (*RedisRevocationStore)(nil)

// NewRedisRevocationStore creates a new Redis revocation store.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{
		client: client,
		prefix: "walletgate:revoked:",
	}
}

// RevokeToken marks a token id as revoked in Redis with a TTL.
func (s *RedisRevocationStore) RevokeToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.prefix + tokenID

	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsTokenRevoked checks whether a token id is revoked in Redis.
func (s *RedisRevocationStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := s.prefix + tokenID

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return val > 0, nil
}
