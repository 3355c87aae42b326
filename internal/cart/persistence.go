package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/domain"
	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

// Store is the durable home of a cart's line items.
// Load never fails: a missing or corrupted cart loads as empty.
type Store interface {
	Load(ctx context.Context) []domain.LineItem
	Save(ctx context.Context, items []domain.LineItem) error
}

// BlobStore is a key/value store for serialized carts.
// Get returns *errors.ErrNotFound when the key is absent.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// BlobPersistence stores one cart as a JSON array under a fixed key
type BlobPersistence struct {
	blobs  BlobStore
	key    string
	logger *zap.Logger
}

// NewBlobPersistence creates a Store backed by a blob under key
func NewBlobPersistence(blobs BlobStore, key string, logger *zap.Logger) *BlobPersistence {
	return &BlobPersistence{
		blobs:  blobs,
		key:    key,
		logger: logger,
	}
}

// StorageKey builds the blob key for a session
func StorageKey(prefix, sessionID string) string {
	return fmt.Sprintf("%s:%s", prefix, sessionID)
}

func (p *BlobPersistence) Load(ctx context.Context) []domain.LineItem {
	blob, err := p.blobs.Get(ctx, p.key)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if !errors.As(err, &notFound) {
			p.logger.Warn("Failed to read persisted cart", zap.String("key", p.key), zap.Error(err))
		}
		return nil
	}

	items, skipped := DecodeItems(blob)
	if skipped > 0 {
		p.logger.Warn("Dropped malformed cart entries", zap.String("key", p.key), zap.Int("skipped", skipped))
	}
	return items
}

func (p *BlobPersistence) Save(ctx context.Context, items []domain.LineItem) error {
	blob, err := EncodeItems(items)
	if err != nil {
		return err
	}
	if err := p.blobs.Set(ctx, p.key, blob); err != nil {
		return fmt.Errorf("save cart %s: %w", p.key, err)
	}
	return nil
}

var knownFields = map[string]struct{}{
	"productId":         {},
	"name":              {},
	"image":             {},
	"vendor":            {},
	"price":             {},
	"selectedVariation": {},
	"unitPrice":         {},
	"quantity":          {},
	"addedAt":           {},
}

// EncodeItems serializes items as a JSON array of flat objects. Extra
// snapshot fields sit next to the known ones.
func EncodeItems(items []domain.LineItem) ([]byte, error) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj := make(map[string]any, len(item.Snapshot.Extra)+len(knownFields))
		for k, v := range item.Snapshot.Extra {
			if _, reserved := knownFields[k]; !reserved {
				obj[k] = v
			}
		}

		obj["productId"] = string(item.ProductID)
		obj["name"] = item.Snapshot.Name
		obj["image"] = item.Snapshot.Image
		if item.Snapshot.Vendor != nil {
			obj["vendor"] = item.Snapshot.Vendor
		}
		obj["price"] = json.Number(item.Snapshot.Price.String())
		if item.Variation != nil {
			obj["selectedVariation"] = encodeVariation(item.Variation)
		} else {
			obj["selectedVariation"] = nil
		}
		obj["unitPrice"] = json.Number(item.UnitPrice.String())
		obj["quantity"] = item.Quantity
		obj["addedAt"] = item.AddedAt.UTC().Format(time.RFC3339Nano)

		out = append(out, obj)
	}

	blob, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart: %w", err)
	}
	return blob, nil
}

func encodeVariation(v *domain.Variation) map[string]any {
	obj := make(map[string]any)
	if v.SKU != "" {
		obj["sku"] = v.SKU
	}
	if len(v.Attributes) > 0 {
		obj["attributes"] = v.Attributes
	}
	if v.Price != nil {
		obj["price"] = json.Number(v.Price.String())
	}
	if v.Stock != nil {
		obj["stock"] = *v.Stock
	}
	return obj
}

// DecodeItems parses a persisted cart. Anything that is not a JSON array
// decodes as empty; array entries that cannot form a valid line item are
// skipped and counted.
func DecodeItems(blob []byte) (items []domain.LineItem, skipped int) {
	var entries []json.RawMessage
	if err := json.Unmarshal(blob, &entries); err != nil {
		return nil, 0
	}

	items = make([]domain.LineItem, 0, len(entries))
	for _, entry := range entries {
		item, ok := decodeItem(entry)
		if !ok {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped
}

func decodeItem(entry json.RawMessage) (domain.LineItem, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
		return domain.LineItem{}, false
	}

	var item domain.LineItem

	id, ok := decodeID(fields["productId"])
	if !ok {
		return domain.LineItem{}, false
	}
	item.ProductID = domain.ProductID(id)

	quantity, ok := decodeQuantity(fields["quantity"])
	if !ok {
		return domain.LineItem{}, false
	}
	item.Quantity = quantity

	if raw, ok := fields["selectedVariation"]; ok && !isNull(raw) {
		var v domain.Variation
		if err := json.Unmarshal(raw, &v); err != nil {
			return domain.LineItem{}, false
		}
		item.Variation = &v
	}

	_ = json.Unmarshal(fields["name"], &item.Snapshot.Name)
	_ = json.Unmarshal(fields["image"], &item.Snapshot.Image)
	item.Snapshot.Vendor = decodeVendor(fields["vendor"])
	item.Snapshot.Price = decodeAmount(fields["price"])

	if raw, ok := fields["unitPrice"]; ok && !isNull(raw) {
		item.UnitPrice = decodeAmount(raw)
	} else {
		item.UnitPrice = unitPrice(item.Snapshot.Price, item.Variation)
	}

	if raw, ok := fields["addedAt"]; ok {
		var addedAt time.Time
		if err := json.Unmarshal(raw, &addedAt); err == nil {
			item.AddedAt = addedAt
		}
	}

	for k, raw := range fields {
		if _, known := knownFields[k]; known {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if item.Snapshot.Extra == nil {
			item.Snapshot.Extra = make(map[string]any)
		}
		item.Snapshot.Extra[k] = v
	}

	return item, true
}

// decodeID accepts a non-empty string or a JSON number
func decodeID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || isNull(raw) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", false
	}
	return n.String(), true
}

func decodeQuantity(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	q, err := decimal.NewFromString(strings.Trim(string(raw), `"`))
	if err != nil || !q.IsInteger() || q.LessThan(decimal.NewFromInt(1)) {
		return 0, false
	}
	return int(q.IntPart()), true
}

func decodeAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 || isNull(raw) {
		return decimal.Zero
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero
	}
	return d
}

func decodeVendor(raw json.RawMessage) *domain.Vendor {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	vendor := &domain.Vendor{}
	if id, ok := decodeID(fields["id"]); ok {
		vendor.ID = id
	}
	_ = json.Unmarshal(fields["name"], &vendor.Name)
	if vendor.ID == "" && vendor.Name == "" {
		return nil
	}
	return vendor
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
