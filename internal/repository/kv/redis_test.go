package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

// setupTestRedis creates a miniredis server and a repository pointing at it
func setupTestRedis(t *testing.T, ttl time.Duration) (*cartBlobRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCartBlobRepository(client, ttl, zap.NewNop()), mr
}

func TestGet_Success(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)
	require.NoError(t, mr.Set("gaugyan_cart:u1", `[{"productId":"1"}]`))

	blob, err := repo.Get(context.Background(), "gaugyan_cart:u1")
	require.NoError(t, err)
	assert.Equal(t, `[{"productId":"1"}]`, string(blob))
}

func TestGet_Miss(t *testing.T) {
	repo, _ := setupTestRedis(t, 0)

	_, err := repo.Get(context.Background(), "gaugyan_cart:nobody")
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestGet_ServerDown(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := repo.Get(context.Background(), "gaugyan_cart:u1")
	require.Error(t, err)
	var notFound *apperrors.ErrNotFound
	assert.False(t, errors.As(err, &notFound))
}

func TestSet_NoTTL(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "gaugyan_cart:u1", []byte(`[]`)))

	val, err := mr.Get("gaugyan_cart:u1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, val)
	assert.Zero(t, mr.TTL("gaugyan_cart:u1"))
}

func TestSet_WithTTL(t *testing.T) {
	repo, mr := setupTestRedis(t, 15*time.Minute)

	require.NoError(t, repo.Set(context.Background(), "gaugyan_cart:u1", []byte(`[]`)))

	ttl := mr.TTL("gaugyan_cart:u1")
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	mr.FastForward(21 * time.Minute)
	assert.False(t, mr.Exists("gaugyan_cart:u1"))
}

func TestDelete(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "gaugyan_cart:u1", []byte(`[]`)))

	require.NoError(t, repo.Delete(ctx, "gaugyan_cart:u1"))
	assert.False(t, mr.Exists("gaugyan_cart:u1"))

	assert.NoError(t, repo.Delete(ctx, "gaugyan_cart:never"))
}
