package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/api/middleware"
	"github.com/gaugyan/storefront/internal/cart"
	"github.com/gaugyan/storefront/internal/domain"
	"github.com/gaugyan/storefront/internal/session"
)

// ProductRequest is the product snapshot a storefront adds to the cart
type ProductRequest struct {
	ID     string          `json:"id" binding:"required"`
	Name   string          `json:"name"`
	Image  string          `json:"image"`
	Vendor *domain.Vendor  `json:"vendor,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Extra  map[string]any  `json:"extra,omitempty"`
}

// AddItemRequest represents POST /v1/cart/items
type AddItemRequest struct {
	Product   ProductRequest    `json:"product" binding:"required"`
	Variation *domain.Variation `json:"variation,omitempty"`
	Quantity  int               `json:"quantity"`
}

// ItemRequest identifies one line item
type ItemRequest struct {
	ProductID string            `json:"product_id" binding:"required"`
	Variation *domain.Variation `json:"variation,omitempty"`
}

// UpdateQuantityRequest represents PATCH /v1/cart/items
type UpdateQuantityRequest struct {
	ProductID string            `json:"product_id" binding:"required"`
	Variation *domain.Variation `json:"variation,omitempty"`
	Quantity  *int              `json:"quantity" binding:"required"`
}

// ToggleDrawerRequest optionally forces the drawer state
type ToggleDrawerRequest struct {
	Open *bool `json:"open,omitempty"`
}

// engineFor holds the session's engine until release is called
func engineFor(c *gin.Context, sessions *session.Manager) (engine *cart.Engine, sessionID string, release func()) {
	sessionID = middleware.GetSessionID(c)
	engine, release = sessions.Get(c.Request.Context(), sessionID)
	return engine, sessionID, release
}

// viewEngine is engineFor for routes that only read. A session minted for
// this request gets a throwaway empty cart instead of a live one.
func viewEngine(c *gin.Context, sessions *session.Manager) (engine *cart.Engine, sessionID string, release func()) {
	if middleware.IsNewSession(c) {
		engine = sessions.Detached()
		return engine, middleware.GetSessionID(c), engine.Close
	}
	return engineFor(c, sessions)
}

func validationFailed(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "validation failed",
		"details": err.Error(),
	})
}

// HandleGetCart handles GET /v1/cart
func HandleGetCart(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine, sessionID, release := viewEngine(c, sessions)
		defer release()
		c.JSON(http.StatusOK, toCartResponse(sessionID, engine.State()))
	}
}

// HandleAddItem handles POST /v1/cart/items
func HandleAddItem(sessions *session.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, err)
			return
		}
		if req.Product.Price.IsNegative() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": "price must not be negative"})
			return
		}
		if req.Variation != nil && req.Variation.Price != nil && req.Variation.Price.IsNegative() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": "variation price must not be negative"})
			return
		}

		engine, sessionID, release := engineFor(c, sessions)
		defer release()
		engine.AddItem(domain.Product{
			ID: domain.ProductID(req.Product.ID),
			Snapshot: domain.Snapshot{
				Name:   req.Product.Name,
				Image:  req.Product.Image,
				Vendor: req.Product.Vendor,
				Price:  req.Product.Price,
				Extra:  req.Product.Extra,
			},
		}, req.Variation, req.Quantity)

		logger.Debug("Item added",
			zap.String("session", sessionID),
			zap.String("product_id", req.Product.ID),
			zap.Int("quantity", req.Quantity),
		)
		c.JSON(http.StatusOK, toCartResponse(sessionID, engine.State()))
	}
}

// HandleUpdateQuantity handles PATCH /v1/cart/items
func HandleUpdateQuantity(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, err)
			return
		}

		engine, sessionID, release := engineFor(c, sessions)
		defer release()
		engine.UpdateQuantity(domain.ProductID(req.ProductID), req.Variation, *req.Quantity)
		c.JSON(http.StatusOK, toCartResponse(sessionID, engine.State()))
	}
}

// HandleRemoveItem handles POST /v1/cart/items/remove
func HandleRemoveItem(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, err)
			return
		}

		engine, sessionID, release := engineFor(c, sessions)
		defer release()
		engine.RemoveItem(domain.ProductID(req.ProductID), req.Variation)
		c.JSON(http.StatusOK, toCartResponse(sessionID, engine.State()))
	}
}

// HandleLookupItem handles POST /v1/cart/items/lookup
func HandleLookupItem(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, err)
			return
		}

		engine, _, release := viewEngine(c, sessions)
		defer release()
		c.JSON(http.StatusOK, gin.H{
			"in_cart": engine.IsInCart(domain.ProductID(req.ProductID), req.Variation),
		})
	}
}

// HandleClearCart handles DELETE /v1/cart
func HandleClearCart(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine, sessionID, release := engineFor(c, sessions)
		defer release()
		engine.Clear()
		c.JSON(http.StatusOK, toCartResponse(sessionID, engine.State()))
	}
}

// HandleGetTotals handles GET /v1/cart/totals
func HandleGetTotals(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine, _, release := viewEngine(c, sessions)
		defer release()
		c.JSON(http.StatusOK, toTotalsResponse(engine.Totals()))
	}
}

// HandleGetVendors handles GET /v1/cart/vendors
func HandleGetVendors(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine, _, release := viewEngine(c, sessions)
		defer release()
		c.JSON(http.StatusOK, gin.H{"vendors": toVendorGroupResponses(engine.ItemsByVendor())})
	}
}

// HandleGetBadge handles GET /v1/cart/badge
func HandleGetBadge(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine, _, release := viewEngine(c, sessions)
		defer release()
		c.JSON(http.StatusOK, gin.H{"item_count": engine.Totals().ItemCount})
	}
}

// ApplyCouponRequest represents POST /v1/cart/coupon
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// HandleApplyCoupon handles POST /v1/cart/coupon
func HandleApplyCoupon(sessions *session.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ApplyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, err)
			return
		}

		engine, sessionID, release := engineFor(c, sessions)
		defer release()
		result := engine.ApplyCoupon(req.Code)

		status := http.StatusOK
		if !result.Success {
			status = http.StatusUnprocessableEntity
			logger.Debug("Coupon rejected", zap.String("session", sessionID), zap.String("code", req.Code))
		}
		c.JSON(status, gin.H{
			"success": result.Success,
			"message": result.Message,
			"cart":    toCartResponse(sessionID, engine.State()),
		})
	}
}

// HandleRemoveCoupon handles DELETE /v1/cart/coupon
func HandleRemoveCoupon(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine, sessionID, release := engineFor(c, sessions)
		defer release()
		engine.RemoveCoupon()
		c.JSON(http.StatusOK, toCartResponse(sessionID, engine.State()))
	}
}

// HandleToggleDrawer handles POST /v1/cart/drawer/toggle
func HandleToggleDrawer(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ToggleDrawerRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				validationFailed(c, err)
				return
			}
		}

		engine, _, release := engineFor(c, sessions)
		defer release()
		var open bool
		if req.Open != nil {
			engine.SetOpen(*req.Open)
			open = *req.Open
		} else {
			open = engine.ToggleOpen()
		}
		c.JSON(http.StatusOK, gin.H{"is_open": open})
	}
}
