package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gaugyan/storefront/internal/domain"
)

type VendorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type VariationResponse struct {
	SKU        string         `json:"sku,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Price      *float64       `json:"price,omitempty"`
	Stock      *int           `json:"stock,omitempty"`
}

type ItemResponse struct {
	ProductID string             `json:"product_id"`
	Name      string             `json:"name"`
	Image     string             `json:"image,omitempty"`
	Vendor    *VendorResponse    `json:"vendor,omitempty"`
	Price     float64            `json:"price"`
	Extra     map[string]any     `json:"extra,omitempty"`
	Variation *VariationResponse `json:"variation,omitempty"`
	UnitPrice float64            `json:"unit_price"`
	Quantity  int                `json:"quantity"`
	LineTotal float64            `json:"line_total"`
	AddedAt   string             `json:"added_at"`
}

type CouponResponse struct {
	Code        string            `json:"code"`
	Type        domain.CouponType `json:"type"`
	Value       float64           `json:"value"`
	MinAmount   float64           `json:"min_amount"`
	Description string            `json:"description"`
}

type TotalsResponse struct {
	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Tax       float64 `json:"tax"`
	Shipping  float64 `json:"shipping"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

type CartResponse struct {
	SessionID string          `json:"session_id"`
	Items     []ItemResponse  `json:"items"`
	Coupon    *CouponResponse `json:"coupon"`
	IsOpen    bool            `json:"is_open"`
	Totals    TotalsResponse  `json:"totals"`
}

type VendorGroupResponse struct {
	Vendor   VendorResponse `json:"vendor"`
	Items    []ItemResponse `json:"items"`
	Subtotal float64        `json:"subtotal"`
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toCartResponse(sessionID string, state domain.CartState) CartResponse {
	resp := CartResponse{
		SessionID: sessionID,
		Items:     toItemResponses(state.Items),
		IsOpen:    state.IsOpen,
		Totals:    toTotalsResponse(state.Totals),
	}
	if state.ActiveCoupon != nil {
		coupon := toCouponResponse(*state.ActiveCoupon)
		resp.Coupon = &coupon
	}
	return resp
}

func toItemResponses(items []domain.LineItem) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = toItemResponse(item)
	}
	return out
}

func toItemResponse(item domain.LineItem) ItemResponse {
	resp := ItemResponse{
		ProductID: string(item.ProductID),
		Name:      item.Snapshot.Name,
		Image:     item.Snapshot.Image,
		Price:     money(item.Snapshot.Price),
		Extra:     item.Snapshot.Extra,
		UnitPrice: money(item.UnitPrice),
		Quantity:  item.Quantity,
		LineTotal: money(item.LineTotal()),
		AddedAt:   item.AddedAt.Format(time.RFC3339),
	}
	if v := item.Snapshot.Vendor; v != nil {
		resp.Vendor = &VendorResponse{ID: v.ID, Name: v.Name}
	}
	if v := item.Variation; v != nil {
		resp.Variation = &VariationResponse{SKU: v.SKU, Attributes: v.Attributes, Stock: v.Stock}
		if v.Price != nil {
			price := money(*v.Price)
			resp.Variation.Price = &price
		}
	}
	return resp
}

func toCouponResponse(c domain.Coupon) CouponResponse {
	return CouponResponse{
		Code:        c.Code,
		Type:        c.Type,
		Value:       money(c.Value),
		MinAmount:   money(c.MinAmount),
		Description: c.Description,
	}
}

func toTotalsResponse(t domain.Totals) TotalsResponse {
	return TotalsResponse{
		Subtotal:  money(t.Subtotal),
		Discount:  money(t.Discount),
		Tax:       money(t.Tax),
		Shipping:  money(t.Shipping),
		Total:     money(t.Total),
		ItemCount: t.ItemCount,
	}
}

func toVendorGroupResponses(groups []domain.VendorGroup) []VendorGroupResponse {
	out := make([]VendorGroupResponse, len(groups))
	for i, g := range groups {
		out[i] = VendorGroupResponse{
			Vendor:   VendorResponse{ID: g.Vendor.ID, Name: g.Vendor.Name},
			Items:    toItemResponses(g.Items),
			Subtotal: money(g.Subtotal),
		}
	}
	return out
}
