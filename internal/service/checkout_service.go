package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/backend"
	"github.com/gaugyan/storefront/internal/cart"
	"github.com/gaugyan/storefront/internal/domain"
	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

// ErrEmptyCart is returned when checkout is attempted with no items
var ErrEmptyCart = errors.New("cart is empty")

// ErrCheckoutInProgress is returned when the session already has an order in flight
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// OrderCreator places orders with the commerce backend
type OrderCreator interface {
	CreateOrder(ctx context.Context, order backend.OrderRequest) (backend.OrderResponse, error)
}

type checkoutService struct {
	backend OrderCreator
	logger  *zap.Logger
	now     func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(backend OrderCreator, logger *zap.Logger) *checkoutService {
	return &checkoutService{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// PlaceOrder sends the session's cart to the backend. Only one checkout per
// cart runs at a time. On success the ordered lines and coupon are taken out
// of the cart; anything added while the order was in flight stays. On failure
// the cart is left as it was.
func (s *checkoutService) PlaceOrder(ctx context.Context, sessionID string, engine *cart.Engine, req CheckoutRequest) (*domain.Order, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	state, ok := engine.BeginCheckout()
	if !ok {
		return nil, ErrCheckoutInProgress
	}
	defer engine.EndCheckout()

	if len(state.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &domain.Order{
		Reference:     uuid.New(),
		SessionID:     sessionID,
		Items:         state.Items,
		Totals:        state.Totals,
		Customer:      req.Customer.toDomain(),
		Shipping:      req.Shipping.toDomain(),
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     s.now().UTC(),
	}
	if state.ActiveCoupon != nil {
		order.CouponCode = state.ActiveCoupon.Code
	}

	resp, err := s.backend.CreateOrder(ctx, toOrderRequest(order))
	if err != nil {
		s.logger.Error("Failed to place order",
			zap.String("session", sessionID),
			zap.String("reference", order.Reference.String()),
			zap.Error(err),
		)
		return nil, err
	}

	order.BackendOrderID = resp.OrderID
	order.Status = resp.Status

	engine.RemoveOrdered(state.Items, state.ActiveCoupon)

	s.logger.Info("Order placed",
		zap.String("session", sessionID),
		zap.String("reference", order.Reference.String()),
		zap.String("backend_order_id", resp.OrderID),
		zap.String("total", order.Totals.Total.String()),
	)
	return order, nil
}

func validateCheckout(req CheckoutRequest) error {
	switch {
	case strings.TrimSpace(req.Customer.Name) == "":
		return &apperrors.ErrValidation{Field: "customer.name", Message: "is required"}
	case strings.TrimSpace(req.Customer.Email) == "":
		return &apperrors.ErrValidation{Field: "customer.email", Message: "is required"}
	case strings.TrimSpace(req.Shipping.Street) == "" || strings.TrimSpace(req.Shipping.City) == "":
		return &apperrors.ErrValidation{Field: "shipping", Message: "street and city are required"}
	case strings.TrimSpace(req.PaymentMethod) == "":
		return &apperrors.ErrValidation{Field: "payment_method", Message: "is required"}
	}
	return nil
}

func toOrderRequest(order *domain.Order) backend.OrderRequest {
	lines := make([]backend.OrderLine, len(order.Items))
	for i, item := range order.Items {
		line := backend.OrderLine{
			ProductID: string(item.ProductID),
			Name:      item.Snapshot.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		}
		if item.Snapshot.Vendor != nil {
			line.VendorID = item.Snapshot.Vendor.ID
		}
		if item.Variation != nil {
			line.SKU = item.Variation.SKU
			line.Attributes = item.Variation.Attributes
		}
		lines[i] = line
	}

	return backend.OrderRequest{
		Reference:  order.Reference.String(),
		SessionID:  order.SessionID,
		Items:      lines,
		CouponCode: order.CouponCode,
		Totals: backend.OrderTotals{
			Subtotal: order.Totals.Subtotal,
			Discount: order.Totals.Discount,
			Tax:      order.Totals.Tax,
			Shipping: order.Totals.Shipping,
			Total:    order.Totals.Total,
		},
		Customer: backend.OrderCustomer{
			Name:  order.Customer.Name,
			Email: order.Customer.Email,
			Phone: order.Customer.Phone,
		},
		Shipping: backend.OrderShipping{
			Street:     order.Shipping.Street,
			City:       order.Shipping.City,
			State:      order.Shipping.State,
			PostalCode: order.Shipping.PostalCode,
			Country:    order.Shipping.Country,
		},
		PaymentMethod: order.PaymentMethod,
	}
}
