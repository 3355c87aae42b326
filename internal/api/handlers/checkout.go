package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/backend"
	"github.com/gaugyan/storefront/internal/cart"
	"github.com/gaugyan/storefront/internal/domain"
	"github.com/gaugyan/storefront/internal/service"
	"github.com/gaugyan/storefront/internal/session"
	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

// OrderPlacer turns a session's cart into an order
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, sessionID string, engine *cart.Engine, req service.CheckoutRequest) (*domain.Order, error)
}

// OrderResponse represents the checkout response
type OrderResponse struct {
	Reference      string         `json:"reference"`
	BackendOrderID string         `json:"backend_order_id"`
	Status         string         `json:"status,omitempty"`
	Items          []ItemResponse `json:"items"`
	CouponCode     string         `json:"coupon_code,omitempty"`
	Totals         TotalsResponse `json:"totals"`
	PaymentMethod  string         `json:"payment_method"`
	CreatedAt      string         `json:"created_at"`
}

// HandleCheckout handles POST /v1/checkout
func HandleCheckout(sessions *session.Manager, orders OrderPlacer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, err)
			return
		}

		engine, sessionID, release := viewEngine(c, sessions)
		defer release()
		order, err := orders.PlaceOrder(c.Request.Context(), sessionID, engine, req)
		if err != nil {
			var validation *apperrors.ErrValidation
			var rejected *backend.StatusError
			switch {
			case errors.Is(err, service.ErrEmptyCart):
				c.JSON(http.StatusConflict, gin.H{"error": "cart is empty"})
			case errors.Is(err, service.ErrCheckoutInProgress):
				c.JSON(http.StatusConflict, gin.H{"error": "checkout already in progress"})
			case errors.As(err, &validation):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": validation.Error()})
			case errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrNotConfigured):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "checkout is temporarily unavailable"})
			case errors.As(err, &rejected) && rejected.Rejected():
				c.JSON(http.StatusBadGateway, gin.H{"error": "order was rejected by the backend"})
			default:
				logger.Error("Checkout failed", zap.String("session", sessionID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place order"})
			}
			return
		}

		c.JSON(http.StatusCreated, OrderResponse{
			Reference:      order.Reference.String(),
			BackendOrderID: order.BackendOrderID,
			Status:         order.Status,
			Items:          toItemResponses(order.Items),
			CouponCode:     order.CouponCode,
			Totals:         toTotalsResponse(order.Totals),
			PaymentMethod:  order.PaymentMethod,
			CreatedAt:      order.CreatedAt.Format(time.RFC3339),
		})
	}
}
