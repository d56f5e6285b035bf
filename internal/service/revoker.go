package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker remembers logged-out token ids until they expire
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisTokenRevoker stores revoked token ids as expiring Redis keys
type RedisTokenRevoker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenRevoker creates a revoker on client
func NewRedisTokenRevoker(client *redis.Client) *RedisTokenRevoker {
	return &RedisTokenRevoker{client: client, keyPrefix: "revoked_token:"}
}

func (r *RedisTokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.client.Set(ctx, r.keyPrefix+tokenID, 1, ttl).Err()
}

func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, r.keyPrefix+tokenID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
