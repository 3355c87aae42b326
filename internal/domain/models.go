package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductID identifies a catalog product. Numeric ids are kept in their
// decimal text form.
type ProductID string

// Vendor is the seller responsible for fulfilling a line item
type Vendor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is the denormalized product display data carried on a line item.
// The pricing engine only reads Price, and only when no variation is chosen.
type Snapshot struct {
	Name   string
	Image  string
	Vendor *Vendor
	Price  decimal.Decimal
	Extra  map[string]any
}

// Product is what a caller hands the cart when adding an item
type Product struct {
	ID ProductID
	Snapshot
}

// Variation is a purchasable configuration of a product (size, colour, ...)
type Variation struct {
	SKU        string           `json:"sku,omitempty"`
	Attributes map[string]any   `json:"attributes,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Stock      *int             `json:"stock,omitempty"`
}

// LineItem is one distinct (product, variation) pairing in a cart
type LineItem struct {
	ProductID ProductID
	Snapshot  Snapshot
	Variation *Variation
	UnitPrice decimal.Decimal
	Quantity  int
	AddedAt   time.Time
}

// LineTotal returns unit price times quantity
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Coupon is a named discount rule gated by a minimum subtotal
type Coupon struct {
	Code        string
	Type        CouponType
	Value       decimal.Decimal
	MinAmount   decimal.Decimal
	Description string
}

// CouponResult reports the outcome of applying a coupon code
type CouponResult struct {
	Success bool
	Message string
}

// Totals is the derived pricing summary of a cart
type Totals struct {
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// VendorGroup is the slice of a cart fulfilled by one vendor
type VendorGroup struct {
	Vendor   Vendor
	Items    []LineItem
	Subtotal decimal.Decimal
}

// CartState is a point-in-time copy of a cart
type CartState struct {
	Items        []LineItem
	ActiveCoupon *Coupon
	IsOpen       bool
	Totals       Totals
}

// APIClient represents a storefront client allowed to call the cart API
type APIClient struct {
	ID         uuid.UUID
	Name       string
	APIKeyHash string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Order is the snapshot of a cart sent to the commerce backend at checkout
type Order struct {
	Reference      uuid.UUID
	BackendOrderID string
	Status         string
	SessionID      string
	Items          []LineItem
	Totals         Totals
	CouponCode     string
	Customer       Customer
	Shipping       ShippingAddress
	PaymentMethod  string
	CreatedAt      time.Time
}

// Customer holds buyer contact details
type Customer struct {
	Name  string
	Email string
	Phone string
}

// ShippingAddress is where an order is delivered
type ShippingAddress struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}
