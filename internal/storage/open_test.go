package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/config"
	"github.com/gaugyan/storefront/internal/domain"
)

func roundTrip(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()

	repos, closeFn, err := Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, repos.CartBlobs.Set(ctx, "gaugyan_cart:s1", []byte(`[]`)))
	blob, err := repos.CartBlobs.Get(ctx, "gaugyan_cart:s1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(blob))
	assert.Nil(t, repos.APIClient)
}

func TestOpen_Memory(t *testing.T) {
	roundTrip(t, &config.Config{Cart: config.CartConfig{Store: domain.BackendMemory}})
}

func TestOpen_SQLite(t *testing.T) {
	roundTrip(t, &config.Config{
		Cart:   config.CartConfig{Store: domain.BackendSQLite},
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "carts.db")},
	})
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	roundTrip(t, &config.Config{
		Cart:  config.CartConfig{Store: domain.BackendRedis},
		Redis: config.RedisConfig{Addr: mr.Addr()},
	})
}

func TestOpen_Unsupported(t *testing.T) {
	_, _, err := Open(context.Background(), &config.Config{Cart: config.CartConfig{Store: "etcd"}}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported cart store")
}
