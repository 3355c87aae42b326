package cart

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/gaugyan/storefront/internal/domain"
)

// identity is the key two line items share when they are the same entry:
// equal product id and structurally equal variation.
type identity struct {
	product   domain.ProductID
	variation string
}

func identityOf(productID domain.ProductID, variation *domain.Variation) identity {
	return identity{product: productID, variation: variationKey(variation)}
}

func itemIdentity(item domain.LineItem) identity {
	return identityOf(item.ProductID, item.Variation)
}

// variationKey returns the RFC 8785 canonical JSON of a variation. A nil or
// empty variation maps to "" so it matches the base product.
func variationKey(v *domain.Variation) string {
	if v == nil {
		return ""
	}

	raw, err := json.Marshal(v)
	if err != nil {
		// unencodable attribute values; fmt prints maps with sorted keys
		return fmt.Sprintf("%s|%v|%v|%v", v.SKU, v.Attributes, v.Price, v.Stock)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return string(raw)
	}
	if string(canonical) == "{}" {
		return ""
	}
	return string(canonical)
}

// SameVariation reports whether two variations identify the same product
// configuration
func SameVariation(a, b *domain.Variation) bool {
	return variationKey(a) == variationKey(b)
}

func cloneVariation(v *domain.Variation) *domain.Variation {
	if v == nil {
		return nil
	}
	out := *v
	if v.Attributes != nil {
		out.Attributes = make(map[string]any, len(v.Attributes))
		for k, val := range v.Attributes {
			out.Attributes[k] = val
		}
	}
	if v.Price != nil {
		price := *v.Price
		out.Price = &price
	}
	if v.Stock != nil {
		stock := *v.Stock
		out.Stock = &stock
	}
	return &out
}

func cloneSnapshot(s domain.Snapshot) domain.Snapshot {
	out := s
	if s.Vendor != nil {
		vendor := *s.Vendor
		out.Vendor = &vendor
	}
	if s.Extra != nil {
		out.Extra = make(map[string]any, len(s.Extra))
		for k, val := range s.Extra {
			out.Extra[k] = val
		}
	}
	return out
}
