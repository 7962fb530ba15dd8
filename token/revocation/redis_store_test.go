package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/agrobridge/auth-service/token/revocation"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*revocation.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return revocation.NewRedisStore(client), mr
}

func TestRedisBlacklistAndCheck(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	revoked, err := store.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, store.Blacklist(ctx, "jti-1", 15*time.Minute))

	revoked, err = store.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRedisEntryExpiresWithTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Blacklist(ctx, "jti-ttl", 30*time.Second))

	mr.FastForward(31 * time.Second)

	revoked, err := store.IsBlacklisted(ctx, "jti-ttl")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRedisNonPositiveTTLIsNoOp(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Blacklist(ctx, "jti-expired", -time.Second))

	revoked, err := store.IsBlacklisted(ctx, "jti-expired")
	require.NoError(t, err)
	require.False(t, revoked)
}
