package postgres

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/gaugyan/storefront/pkg/errors"
)

type cartBlobRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCartBlobRepository creates a cart blob repository on the cart_blobs table
func NewCartBlobRepository(db *sql.DB, logger *zap.Logger) *cartBlobRepository {
	return &cartBlobRepository{
		db:     db,
		logger: logger,
	}
}

func (r *cartBlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT blob FROM cart_blobs WHERE key = $1`

	var blob []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get cart blob", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return blob, nil
}

func (r *cartBlobRepository) Set(ctx context.Context, key string, blob []byte) error {
	query := `
		INSERT INTO cart_blobs (key, blob, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, string(blob)); err != nil {
		r.logger.Error("Failed to save cart blob", zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}

func (r *cartBlobRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM cart_blobs WHERE key = $1`

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		r.logger.Error("Failed to delete cart blob", zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}
