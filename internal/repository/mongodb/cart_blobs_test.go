package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

func TestCartBlobRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get found", func(mt *mtest.T) {
		repo := NewCartBlobRepository(mt.DB, zap.NewNop())
		ns := mt.DB.Name() + "." + collectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "gaugyan_cart:s1"},
			{Key: "blob", Value: `[{"productId":"1"}]`},
		}))

		blob, err := repo.Get(context.Background(), "gaugyan_cart:s1")
		require.NoError(mt, err)
		assert.Equal(mt, `[{"productId":"1"}]`, string(blob))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewCartBlobRepository(mt.DB, zap.NewNop())
		ns := mt.DB.Name() + "." + collectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.Get(context.Background(), "gaugyan_cart:none")
		var notFound *apperrors.ErrNotFound
		assert.ErrorAs(mt, err, &notFound)
	})

	mt.Run("set upserts", func(mt *mtest.T) {
		repo := NewCartBlobRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "gaugyan_cart:s1"}}}},
		))

		err := repo.Set(context.Background(), "gaugyan_cart:s1", []byte(`[]`))
		assert.NoError(mt, err)
	})

	mt.Run("set error", func(mt *mtest.T) {
		repo := NewCartBlobRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad value",
		}))

		err := repo.Set(context.Background(), "gaugyan_cart:s1", []byte(`[]`))
		assert.Error(mt, err)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewCartBlobRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, repo.Delete(context.Background(), "gaugyan_cart:s1"))
	})
}
