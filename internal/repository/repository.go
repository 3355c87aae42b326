package repository

import (
	"context"

	"github.com/gaugyan/storefront/internal/domain"
)

// CartBlobRepository stores serialized carts by key.
// Get returns *errors.ErrNotFound when the key is absent.
type CartBlobRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// APIClientRepository manages storefront clients allowed to call the API
type APIClientRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.APIClient, error)
	GetByID(ctx context.Context, id string) (*domain.APIClient, error)
	Create(ctx context.Context, client *domain.APIClient) error
}

// Repositories groups the stores the server is wired with
type Repositories struct {
	CartBlobs CartBlobRepository
	APIClient APIClientRepository
}
