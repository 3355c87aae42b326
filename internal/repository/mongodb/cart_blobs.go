package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

const collectionName = "cart_blobs"

type cartDocument struct {
	Key       string    `bson:"_id"`
	Blob      string    `bson:"blob"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Connect opens a mongo client and returns the named database
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type cartBlobRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewCartBlobRepository stores each cart blob as one document keyed by _id
func NewCartBlobRepository(db *mongo.Database, logger *zap.Logger) *cartBlobRepository {
	return &cartBlobRepository{
		collection: db.Collection(collectionName),
		logger:     logger,
	}
}

func (r *cartBlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var doc cartDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.ErrNotFound{Resource: "cart", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get cart blob", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("find cart blob: %w", err)
	}
	return []byte(doc.Blob), nil
}

func (r *cartBlobRepository) Set(ctx context.Context, key string, blob []byte) error {
	update := bson.M{"$set": bson.M{"blob": string(blob), "updated_at": time.Now().UTC()}}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		r.logger.Error("Failed to save cart blob", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("upsert cart blob: %w", err)
	}
	return nil
}

func (r *cartBlobRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete cart blob: %w", err)
	}
	return nil
}
