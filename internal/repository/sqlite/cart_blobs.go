package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/gaugyan/storefront/pkg/errors"
)

type cartBlobRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) a sqlite database file
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewCartBlobRepository creates the cart_blobs table if needed and returns
// a repository on it
func NewCartBlobRepository(db *sql.DB, logger *zap.Logger) (*cartBlobRepository, error) {
	r := &cartBlobRepository{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *cartBlobRepository) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS cart_blobs (
		key TEXT PRIMARY KEY,
		blob TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := r.db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

func (r *cartBlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var blob string
	err := r.db.QueryRowContext(ctx, `SELECT blob FROM cart_blobs WHERE key = ?`, key).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get cart blob", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return []byte(blob), nil
}

func (r *cartBlobRepository) Set(ctx context.Context, key string, blob []byte) error {
	query := `
		INSERT INTO cart_blobs (key, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, string(blob), time.Now().UTC()); err != nil {
		r.logger.Error("Failed to save cart blob", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *cartBlobRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_blobs WHERE key = ?`, key); err != nil {
		r.logger.Error("Failed to delete cart blob", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
