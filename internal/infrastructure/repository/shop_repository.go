package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/ports"
)

// MongoShopRepository implements ShopRepository using MongoDB.
type MongoShopRepository struct {
	collection *mongo.Collection
}

// NewMongoShopRepository creates a new MongoDB shop repository.
func NewMongoShopRepository(db *mongo.Database) ports.ShopRepository {
	return &MongoShopRepository{collection: db.Collection("shops")}
}

// Save saves or updates a shop, keyed by domain.
func (r *MongoShopRepository) Save(ctx context.Context, shop *domain.Shop) error {
	now := time.Now()
	shop.UpdatedAt = now
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = now
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{"$set": shop}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}

// GetByDomain retrieves a shop by domain. Returns nil when unknown.
func (r *MongoShopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var shop domain.Shop
	err := r.collection.FindOne(ctx, bson.M{"domain": shopDomain}).Decode(&shop)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return &shop, nil
}

// List retrieves all connected shops.
func (r *MongoShopRepository) List(ctx context.Context) ([]*domain.Shop, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	defer cursor.Close(ctx)

	var shops []*domain.Shop
	for cursor.Next(ctx) {
		var shop domain.Shop
		if err := cursor.Decode(&shop); err != nil {
			return nil, fmt.Errorf("failed to decode shop: %w", err)
		}
		shops = append(shops, &shop)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return shops, nil
}
