package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCartBlobRepository_Get(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartBlobRepository(db, zap.NewNop())
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT blob FROM cart_blobs WHERE key = $1")).
		WithArgs("gaugyan_cart:s1").
		WillReturnRows(sqlmock.NewRows([]string{"blob"}).AddRow([]byte(`[]`)))

	blob, err := repo.Get(ctx, "gaugyan_cart:s1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(blob))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT blob FROM cart_blobs")).
		WithArgs("gaugyan_cart:s2").
		WillReturnRows(sqlmock.NewRows([]string{"blob"}))

	_, err = repo.Get(ctx, "gaugyan_cart:s2")
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT blob FROM cart_blobs")).
		WithArgs("gaugyan_cart:s3").
		WillReturnError(errors.New("connection reset"))

	_, err = repo.Get(ctx, "gaugyan_cart:s3")
	require.Error(t, err)
	assert.False(t, errors.As(err, &notFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartBlobRepository_Set(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartBlobRepository(db, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_blobs (key, blob, updated_at)")).
		WithArgs("gaugyan_cart:s1", `[{"productId":"1"}]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Set(context.Background(), "gaugyan_cart:s1", []byte(`[{"productId":"1"}]`))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartBlobRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartBlobRepository(db, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_blobs WHERE key = $1")).
		WithArgs("gaugyan_cart:s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "gaugyan_cart:s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS cart_blobs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
