package coupon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gaugyan/storefront/internal/domain"
)

// Catalog is the fixed, read-only set of coupon definitions
type Catalog struct {
	byCode map[string]domain.Coupon
	order  []string
}

// NewCatalog builds a catalog, rejecting unknown types and duplicate codes
func NewCatalog(defs ...domain.Coupon) (*Catalog, error) {
	c := &Catalog{
		byCode: make(map[string]domain.Coupon, len(defs)),
		order:  make([]string, 0, len(defs)),
	}

	for _, def := range defs {
		code := Normalize(def.Code)
		if code == "" {
			return nil, fmt.Errorf("coupon code is required")
		}
		if !def.Type.IsValid() {
			return nil, fmt.Errorf("coupon %s: invalid type %q", code, def.Type)
		}
		if def.Value.IsNegative() || def.MinAmount.IsNegative() {
			return nil, fmt.Errorf("coupon %s: value and minimum must not be negative", code)
		}
		if _, exists := c.byCode[code]; exists {
			return nil, fmt.Errorf("duplicate coupon code %s", code)
		}

		def.Code = code
		c.byCode[code] = def
		c.order = append(c.order, code)
	}

	return c, nil
}

// DefaultCatalog returns the coupons the storefront ships with
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		domain.Coupon{
			Code:        "WELCOME10",
			Type:        domain.CouponTypePercentage,
			Value:       decimal.NewFromInt(10),
			MinAmount:   decimal.NewFromInt(500),
			Description: "10% off on orders above ₹500",
		},
		domain.Coupon{
			Code:        "SAVE20",
			Type:        domain.CouponTypePercentage,
			Value:       decimal.NewFromInt(20),
			MinAmount:   decimal.NewFromInt(2000),
			Description: "20% off on orders above ₹2000",
		},
		domain.Coupon{
			Code:        "FLAT100",
			Type:        domain.CouponTypeFixed,
			Value:       decimal.NewFromInt(100),
			MinAmount:   decimal.NewFromInt(1500),
			Description: "₹100 off on orders above ₹1500",
		},
		domain.Coupon{
			Code:        "FLAT250",
			Type:        domain.CouponTypeFixed,
			Value:       decimal.NewFromInt(250),
			MinAmount:   decimal.NewFromInt(3000),
			Description: "₹250 off on orders above ₹3000",
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a coupon by code. Codes are matched after Normalize.
func (c *Catalog) Lookup(code string) (domain.Coupon, bool) {
	def, ok := c.byCode[Normalize(code)]
	return def, ok
}

// All returns every coupon in declaration order
func (c *Catalog) All() []domain.Coupon {
	out := make([]domain.Coupon, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.byCode[code])
	}
	return out
}

// Normalize trims surrounding whitespace and uppercases a coupon code
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
