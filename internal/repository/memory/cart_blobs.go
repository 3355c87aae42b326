package memory

import (
	"context"
	"sync"

	"github.com/gaugyan/storefront/pkg/errors"
)

type cartBlobRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewCartBlobRepository creates a process-local cart blob store
func NewCartBlobRepository() *cartBlobRepository {
	return &cartBlobRepository{
		blobs: make(map[string][]byte),
	}
}

func (r *cartBlobRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	blob, ok := r.blobs[key]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: key}
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (r *cartBlobRepository) Set(_ context.Context, key string, blob []byte) error {
	stored := make([]byte, len(blob))
	copy(stored, blob)

	r.mu.Lock()
	r.blobs[key] = stored
	r.mu.Unlock()
	return nil
}

func (r *cartBlobRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.blobs, key)
	r.mu.Unlock()
	return nil
}
