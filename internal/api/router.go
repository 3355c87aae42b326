package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/api/handlers"
	"github.com/gaugyan/storefront/internal/api/middleware"
	"github.com/gaugyan/storefront/internal/config"
	"github.com/gaugyan/storefront/internal/coupon"
	"github.com/gaugyan/storefront/internal/repository"
	"github.com/gaugyan/storefront/internal/session"
)

// NewRouter creates and configures the Gin router
func NewRouter(
	cfg *config.Config,
	repos *repository.Repositories,
	sessions *session.Manager,
	catalog *coupon.Catalog,
	orders handlers.OrderPlacer,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "sessions": sessions.Len()})
	})

	v1 := router.Group("/v1")
	if cfg.API.RequireKey {
		v1.Use(middleware.AuthMiddleware(repos.APIClient, logger))
	}

	v1.GET("/coupons", handlers.HandleListCoupons(catalog))

	// Session-scoped routes
	shopper := v1.Group("")
	shopper.Use(middleware.SessionMiddleware(logger))
	{
		shopper.GET("/cart", handlers.HandleGetCart(sessions))
		shopper.DELETE("/cart", handlers.HandleClearCart(sessions))
		shopper.POST("/cart/items", handlers.HandleAddItem(sessions, logger))
		shopper.PATCH("/cart/items", handlers.HandleUpdateQuantity(sessions))
		shopper.POST("/cart/items/remove", handlers.HandleRemoveItem(sessions))
		shopper.POST("/cart/items/lookup", handlers.HandleLookupItem(sessions))
		shopper.GET("/cart/totals", handlers.HandleGetTotals(sessions))
		shopper.GET("/cart/vendors", handlers.HandleGetVendors(sessions))
		shopper.GET("/cart/badge", handlers.HandleGetBadge(sessions))
		shopper.POST("/cart/coupon", handlers.HandleApplyCoupon(sessions, logger))
		shopper.DELETE("/cart/coupon", handlers.HandleRemoveCoupon(sessions))
		shopper.POST("/cart/drawer/toggle", handlers.HandleToggleDrawer(sessions))
		shopper.POST("/checkout", handlers.HandleCheckout(sessions, orders, logger))
		shopper.DELETE("/session", handlers.HandleEndSession(sessions))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("session", middleware.GetSessionID(c)),
		)
	}
}
