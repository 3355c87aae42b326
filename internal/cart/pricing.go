package cart

import (
	"github.com/shopspring/decimal"

	"github.com/gaugyan/storefront/internal/domain"
)

const (
	DefaultVendorID   = "default"
	DefaultVendorName = "GauGyan Store"
)

var hundred = decimal.NewFromInt(100)

// Pricing holds the rates the totals pipeline applies
type Pricing struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// DefaultPricing is 18% GST with a flat 50 shipping fee waived above 500
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.18"),
		ShippingFee:           decimal.NewFromInt(50),
		FreeShippingThreshold: decimal.NewFromInt(500),
	}
}

// Compute derives the order totals for a set of items and an optional coupon.
// It does not modify its arguments.
func (p Pricing) Compute(items []domain.LineItem, coupon *domain.Coupon) domain.Totals {
	subtotal := Subtotal(items)
	discount := Discount(coupon, subtotal)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(p.TaxRate)

	shipping := p.ShippingFee
	if taxable.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	return domain.Totals{
		Subtotal:  subtotal,
		Discount:  discount,
		Tax:       tax,
		Shipping:  shipping,
		Total:     taxable.Add(tax).Add(shipping),
		ItemCount: count,
	}
}

// Subtotal sums unit price times quantity
func Subtotal(items []domain.LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// Discount returns what a coupon takes off a subtotal. A coupon whose minimum
// is not met yields zero; the result never exceeds the subtotal.
func Discount(coupon *domain.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil || subtotal.LessThan(coupon.MinAmount) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case domain.CouponTypePercentage:
		discount = subtotal.Mul(coupon.Value).Div(hundred)
	case domain.CouponTypeFixed:
		discount = coupon.Value
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

// GroupByVendor partitions items by vendor in order of first appearance
func GroupByVendor(items []domain.LineItem) []domain.VendorGroup {
	groups := make([]domain.VendorGroup, 0)
	index := make(map[string]int)

	for _, item := range items {
		vendor := vendorOf(item)
		i, ok := index[vendor.ID]
		if !ok {
			i = len(groups)
			index[vendor.ID] = i
			groups = append(groups, domain.VendorGroup{Vendor: vendor, Subtotal: decimal.Zero})
		}
		groups[i].Items = append(groups[i].Items, item)
		groups[i].Subtotal = groups[i].Subtotal.Add(item.LineTotal())
	}

	return groups
}

func vendorOf(item domain.LineItem) domain.Vendor {
	vendor := domain.Vendor{ID: DefaultVendorID, Name: DefaultVendorName}
	if v := item.Snapshot.Vendor; v != nil {
		if v.ID != "" {
			vendor.ID = v.ID
		}
		if v.Name != "" {
			vendor.Name = v.Name
		}
	}
	return vendor
}

// unitPrice picks the variation price when one is set, else the base price
func unitPrice(base decimal.Decimal, variation *domain.Variation) decimal.Decimal {
	if variation != nil && variation.Price != nil {
		return *variation.Price
	}
	return base
}
