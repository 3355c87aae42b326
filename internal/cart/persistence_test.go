package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/coupon"
	"github.com/gaugyan/storefront/internal/domain"
	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

type mapBlobStore struct {
	blobs  map[string][]byte
	getErr error
}

func newMapBlobStore() *mapBlobStore {
	return &mapBlobStore{blobs: make(map[string][]byte)}
}

func (m *mapBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	blob, ok := m.blobs[key]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "cart", ID: key}
	}
	return blob, nil
}

func (m *mapBlobStore) Set(_ context.Context, key string, blob []byte) error {
	m.blobs[key] = blob
	return nil
}

func (m *mapBlobStore) Delete(_ context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "gaugyan_cart:abc", StorageKey("gaugyan_cart", "abc"))
}

func TestBlobPersistence_RoundTrip(t *testing.T) {
	blobs := newMapBlobStore()
	p := NewBlobPersistence(blobs, "gaugyan_cart:s1", zap.NewNop())
	ctx := context.Background()

	price := dec("12.50")
	stock := 3
	added := time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)
	items := []domain.LineItem{
		{
			ProductID: "42",
			Snapshot: domain.Snapshot{
				Name:   "Ghee 500ml",
				Image:  "/img/ghee.png",
				Vendor: &domain.Vendor{ID: "v1", Name: "Dairy Co"},
				Price:  dec("10"),
				Extra:  map[string]any{"category": "dairy"},
			},
			Variation: &domain.Variation{
				Attributes: map[string]any{"size": "500ml", "pack": float64(2)},
				Price:      &price,
				Stock:      &stock,
			},
			UnitPrice: price,
			Quantity:  2,
			AddedAt:   added,
		},
		{
			ProductID: "book-1",
			Snapshot:  domain.Snapshot{Name: "Gita", Price: dec("299")},
			UnitPrice: dec("299"),
			Quantity:  1,
			AddedAt:   added,
		},
	}

	require.NoError(t, p.Save(ctx, items))
	loaded := p.Load(ctx)
	require.Len(t, loaded, 2)

	for i := range items {
		assert.Equal(t, itemIdentity(items[i]), itemIdentity(loaded[i]))
		assert.Equal(t, items[i].Quantity, loaded[i].Quantity)
		assert.True(t, items[i].UnitPrice.Equal(loaded[i].UnitPrice))
		assert.True(t, items[i].AddedAt.Equal(loaded[i].AddedAt))
		assert.Equal(t, items[i].Snapshot.Name, loaded[i].Snapshot.Name)
	}
	assert.Equal(t, &domain.Vendor{ID: "v1", Name: "Dairy Co"}, loaded[0].Snapshot.Vendor)
	assert.Equal(t, "dairy", loaded[0].Snapshot.Extra["category"])
	assert.Equal(t, 3, *loaded[0].Variation.Stock)
	assert.Nil(t, loaded[1].Variation)
}

func TestBlobPersistence_EngineRestoresSavedCart(t *testing.T) {
	blobs := newMapBlobStore()
	key := StorageKey("gaugyan_cart", "s1")
	catalog := coupon.DefaultCatalog()

	first := NewEngine(NewBlobPersistence(blobs, key, zap.NewNop()), catalog, DefaultPricing(), zap.NewNop())
	first.AddItem(vendorProduct("A", "100", "x", "X"), &domain.Variation{Attributes: map[string]any{"size": "M"}}, 2)
	first.AddItem(product("B", "50"), nil, 1)
	first.Close()

	second := NewEngine(NewBlobPersistence(blobs, key, zap.NewNop()), catalog, DefaultPricing(), zap.NewNop())
	defer second.Close()
	second.Restore(context.Background())

	require.Len(t, second.Items(), 2)
	assert.True(t, second.IsInCart("A", &domain.Variation{Attributes: map[string]any{"size": "M"}}))
	assert.True(t, first.Totals().Total.Equal(second.Totals().Total))

	second.AddItem(vendorProduct("A", "100", "x", "X"), &domain.Variation{Attributes: map[string]any{"size": "M"}}, 1)
	assert.Equal(t, 3, second.Items()[0].Quantity, "restored items still merge")
}

func TestBlobPersistence_LoadFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()

	missing := NewBlobPersistence(newMapBlobStore(), "k", zap.NewNop())
	assert.Empty(t, missing.Load(ctx))

	failing := newMapBlobStore()
	failing.getErr = errors.New("connection refused")
	assert.Empty(t, NewBlobPersistence(failing, "k", zap.NewNop()).Load(ctx))

	for _, blob := range []string{``, `not json`, `{"productId":"a"}`, `"str"`, `null`, `[1, 2]`} {
		store := newMapBlobStore()
		store.blobs["k"] = []byte(blob)
		assert.Empty(t, NewBlobPersistence(store, "k", zap.NewNop()).Load(ctx), "blob %q", blob)
	}
}

func TestDecodeItems_SkipsMalformedEntries(t *testing.T) {
	blob := `[
		{"productId": 7, "price": 120, "quantity": 2, "selectedVariation": null},
		{"productId": "", "price": 1, "quantity": 1},
		{"price": 1, "quantity": 1},
		{"productId": "x", "price": 1, "quantity": 0},
		{"productId": "y", "price": 1, "quantity": -2},
		{"productId": "z", "price": 1, "quantity": 1.5},
		{"productId": "v", "price": 1, "quantity": 1, "selectedVariation": "bad"},
		{"productId": "w", "price": "9.99", "quantity": "3", "vendor": {"id": 12, "name": "Twelve"},
		 "selectedVariation": {"attributes": {"size": "S"}, "price": 8}}
	]`

	items, skipped := DecodeItems([]byte(blob))
	require.Len(t, items, 2)
	assert.Equal(t, 6, skipped)

	assert.Equal(t, domain.ProductID("7"), items[0].ProductID)
	assert.True(t, dec("120").Equal(items[0].UnitPrice))
	assert.Nil(t, items[0].Variation)

	assert.Equal(t, domain.ProductID("w"), items[1].ProductID)
	assert.Equal(t, 3, items[1].Quantity)
	assert.True(t, dec("8").Equal(items[1].UnitPrice), "unit price falls back to the variation price")
	assert.Equal(t, "12", items[1].Snapshot.Vendor.ID)
}

func TestEncodeItems_ReservedExtraKeysDoNotOverride(t *testing.T) {
	items := []domain.LineItem{{
		ProductID: "a",
		Snapshot:  domain.Snapshot{Price: dec("1"), Extra: map[string]any{"quantity": 99, "badge": "new"}},
		UnitPrice: dec("1"),
		Quantity:  2,
	}}

	blob, err := EncodeItems(items)
	require.NoError(t, err)

	decoded, skipped := DecodeItems(blob)
	require.Len(t, decoded, 1)
	assert.Zero(t, skipped)
	assert.Equal(t, 2, decoded[0].Quantity)
	assert.Equal(t, "new", decoded[0].Snapshot.Extra["badge"])
}
