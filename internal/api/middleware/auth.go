package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/domain"
	"github.com/gaugyan/storefront/internal/repository"
	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

const apiClientKey = "api_client"

// AuthMiddleware authenticates storefront clients by their bearer API key
func AuthMiddleware(clients repository.APIClientRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		apiKey, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(apiKey) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		client, err := clients.GetByAPIKey(c.Request.Context(), strings.TrimSpace(apiKey))
		if err != nil {
			var notFound *apperrors.ErrNotFound
			var unauthorized *apperrors.ErrUnauthorized
			if errors.As(err, &notFound) || errors.As(err, &unauthorized) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				c.Abort()
				return
			}
			logger.Error("Failed to authenticate client", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}

		if !client.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "client is inactive"})
			c.Abort()
			return
		}

		c.Set(apiClientKey, client)
		c.Next()
	}
}

// GetClientFromContext returns the client set by AuthMiddleware
func GetClientFromContext(c *gin.Context) (*domain.APIClient, bool) {
	v, ok := c.Get(apiClientKey)
	if !ok {
		return nil, false
	}
	client, ok := v.(*domain.APIClient)
	return client, ok
}
