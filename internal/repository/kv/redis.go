package kv

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

// Options configures the redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL expires idle carts; zero keeps them forever
	TTL time.Duration
}

// NewClient connects to redis and verifies the connection
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

type cartBlobRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCartBlobRepository stores cart blobs as plain redis strings
func NewCartBlobRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *cartBlobRepository {
	return &cartBlobRepository{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *cartBlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &apperrors.ErrNotFound{Resource: "cart", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get cart blob", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *cartBlobRepository) Set(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, key, blob, r.expiry()).Err(); err != nil {
		r.logger.Error("Failed to set cart blob", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *cartBlobRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// expiry spreads expirations over a few minutes so idle carts do not all
// expire together
func (r *cartBlobRepository) expiry() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.ttl + jitter
}
