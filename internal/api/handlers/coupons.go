package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gaugyan/storefront/internal/coupon"
)

// HandleListCoupons handles GET /v1/coupons
func HandleListCoupons(catalog *coupon.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		defs := catalog.All()
		coupons := make([]CouponResponse, len(defs))
		for i, def := range defs {
			coupons[i] = toCouponResponse(def)
		}
		c.JSON(http.StatusOK, gin.H{"coupons": coupons})
	}
}
