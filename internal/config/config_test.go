package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugyan/storefront/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, domain.BackendMemory, cfg.Cart.Store)
	assert.Equal(t, "gaugyan_cart", cfg.Cart.StorageKey)
	assert.True(t, decimal.RequireFromString("0.18").Equal(cfg.Cart.TaxRate))
	assert.True(t, decimal.NewFromInt(50).Equal(cfg.Cart.ShippingFee))
	assert.True(t, decimal.NewFromInt(500).Equal(cfg.Cart.FreeShippingThreshold))
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.False(t, cfg.API.RequireKey)
}

func TestLoad_FromEnvironment(t *testing.T) {
	viper.Reset()
	t.Setenv("PORT", "9090")
	t.Setenv("CART_STORE", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CART_TTL", "24h")
	t.Setenv("CART_TAX_RATE", "0.05")
	t.Setenv("SESSION_IDLE_TTL", "0")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, domain.BackendRedis, cfg.Cart.Store)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 24*time.Hour, cfg.Cart.TTL)
	assert.True(t, decimal.RequireFromString("0.05").Equal(cfg.Cart.TaxRate))
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Zero(t, cfg.Session.IdleTTL, "zero disables idle eviction")
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":         {"CART_STORE": "dynamo"},
		"bad tax rate":          {"CART_TAX_RATE": "eighteen"},
		"negative fee":          {"CART_SHIPPING_FEE": "-1"},
		"bad ttl":               {"CART_TTL": "forever"},
		"bad redis db":          {"REDIS_DB": "zero"},
		"negative idle ttl":     {"SESSION_IDLE_TTL": "-5m"},
		"bad idle ttl":          {"SESSION_IDLE_TTL": "soon"},
		"auth without postgres": {"API_REQUIRE_KEY": "true"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			viper.Reset()
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
