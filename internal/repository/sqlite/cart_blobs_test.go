package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/pkg/errors"
)

func newRepo(t *testing.T) *cartBlobRepository {
	db, err := Open(filepath.Join(t.TempDir(), "carts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewCartBlobRepository(db, zap.NewNop())
	require.NoError(t, err)
	return repo
}

func TestCartBlobRepository_Lifecycle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "gaugyan_cart:s1")
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)

	require.NoError(t, repo.Set(ctx, "gaugyan_cart:s1", []byte(`[{"productId":"1","quantity":1}]`)))
	require.NoError(t, repo.Set(ctx, "gaugyan_cart:s1", []byte(`[{"productId":"1","quantity":2}]`)))

	blob, err := repo.Get(ctx, "gaugyan_cart:s1")
	require.NoError(t, err)
	assert.Equal(t, `[{"productId":"1","quantity":2}]`, string(blob))

	require.NoError(t, repo.Delete(ctx, "gaugyan_cart:s1"))
	_, err = repo.Get(ctx, "gaugyan_cart:s1")
	assert.ErrorAs(t, err, &notFound)
}

func TestNewCartBlobRepository_MigrationIsRepeatable(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "carts.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = NewCartBlobRepository(db, zap.NewNop())
	require.NoError(t, err)
	_, err = NewCartBlobRepository(db, zap.NewNop())
	assert.NoError(t, err)
}
