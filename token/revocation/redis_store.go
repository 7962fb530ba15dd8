package revocation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// RedisStore implements Store on Redis. TTL handling is delegated to Redis
// itself, so revocation entries disappear with the tokens they cover.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client. The caller owns the client's
// lifecycle and may share it with other components.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

// Blacklist marks a token ID as revoked until ttl passes. A non-positive ttl is
// a no-op: the token is already expired and will be rejected anyway.
func (s *RedisStore) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Blacklist] SET")
	}
	return nil
}

// IsBlacklisted reports whether a token ID has been revoked.
func (s *RedisStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	_, err := s.client.Get(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "[RedisStore.IsBlacklisted] GET")
	}
	return true, nil
}
