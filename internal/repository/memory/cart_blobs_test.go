package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugyan/storefront/pkg/errors"
)

func TestCartBlobRepository(t *testing.T) {
	repo := NewCartBlobRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "gaugyan_cart:s1")
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "gaugyan_cart:s1", notFound.ID)

	blob := []byte(`[{"productId":"1","quantity":1}]`)
	require.NoError(t, repo.Set(ctx, "gaugyan_cart:s1", blob))
	blob[0] = 'X'

	got, err := repo.Get(ctx, "gaugyan_cart:s1")
	require.NoError(t, err)
	assert.Equal(t, `[{"productId":"1","quantity":1}]`, string(got), "stored copy is isolated from the caller")

	require.NoError(t, repo.Delete(ctx, "gaugyan_cart:s1"))
	_, err = repo.Get(ctx, "gaugyan_cart:s1")
	assert.ErrorAs(t, err, &notFound)
}
