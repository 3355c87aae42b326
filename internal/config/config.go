package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/gaugyan/storefront/internal/domain"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	SQLite      SQLiteConfig
	Mongo       MongoConfig
	Cart        CartConfig
	Session     SessionConfig
	Backend     BackendConfig
	API         APIConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

type MongoConfig struct {
	URI      string
	Database string
}

// CartConfig controls cart persistence and the pricing pipeline
type CartConfig struct {
	Store                 domain.Backend
	StorageKey            string
	TTL                   time.Duration
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// SessionConfig controls how long an unused cart session stays in memory.
// A zero IdleTTL keeps sessions until they are ended explicitly.
type SessionConfig struct {
	IdleTTL time.Duration
}

// BackendConfig points at the remote commerce API orders are placed with
type BackendConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

type APIConfig struct {
	RequireKey bool
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CART_STORE", string(domain.BackendMemory))

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
		},
		SQLite: SQLiteConfig{
			Path: getEnvOrViper("SQLITE_PATH", "storefront.db"),
		},
		Mongo: MongoConfig{
			URI:      getEnvOrViper("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnvOrViper("MONGO_DB", "storefront"),
		},
		Cart: CartConfig{
			Store:      domain.Backend(strings.ToLower(getEnvOrViper("CART_STORE", string(domain.BackendMemory)))),
			StorageKey: getEnvOrViper("CART_STORAGE_KEY", "gaugyan_cart"),
		},
		Backend: BackendConfig{
			BaseURL:  strings.TrimSuffix(getEnvOrViper("BACKEND_BASE_URL", ""), "/"),
			APIToken: getEnvOrViper("BACKEND_API_TOKEN", ""),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Cart.TTL, err = getDuration("CART_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.Session.IdleTTL, err = getDuration("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Backend.Timeout, err = getDuration("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Cart.TaxRate, err = getDecimal("CART_TAX_RATE", "0.18"); err != nil {
		return nil, err
	}
	if cfg.Cart.ShippingFee, err = getDecimal("CART_SHIPPING_FEE", "50"); err != nil {
		return nil, err
	}
	if cfg.Cart.FreeShippingThreshold, err = getDecimal("CART_FREE_SHIPPING_THRESHOLD", "500"); err != nil {
		return nil, err
	}
	cfg.API.RequireKey = strings.EqualFold(getEnvOrViper("API_REQUIRE_KEY", "false"), "true")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the fields that have no usable default
func (c *Config) Validate() error {
	if !c.Cart.Store.IsValid() {
		return fmt.Errorf("CART_STORE must be one of memory, redis, postgres, sqlite, mongo; got %q", c.Cart.Store)
	}
	if c.Cart.StorageKey == "" {
		return fmt.Errorf("CART_STORAGE_KEY must not be empty")
	}
	if c.Cart.TaxRate.IsNegative() || c.Cart.ShippingFee.IsNegative() || c.Cart.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("cart tax rate, shipping fee and free shipping threshold must not be negative")
	}
	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must not be negative")
	}
	if c.API.RequireKey && c.Cart.Store != domain.BackendPostgres {
		return fmt.Errorf("API_REQUIRE_KEY needs CART_STORE=postgres for the api_clients table")
	}
	return nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnvOrViper(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return d, nil
}
