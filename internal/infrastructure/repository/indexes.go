package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the uniqueness and secondary indexes the mirror
// relies on. The unique (shopDomain, shopifyId) index per resource collection
// is what makes upserts idempotent; the rest serve the facade's filters.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	mirrorKey := bson.D{{Key: "shopDomain", Value: 1}, {Key: "shopifyId", Value: 1}}

	specs := map[string][]mongo.IndexModel{
		"shops": {
			{Keys: bson.D{{Key: "domain", Value: 1}}, Options: unique},
		},
		"products": {
			{Keys: mirrorKey, Options: unique},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "vendor", Value: 1}}},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "productType", Value: 1}}},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "status", Value: 1}}},
		},
		"orders": {
			{Keys: mirrorKey, Options: unique},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "financialStatus", Value: 1}}},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "fulfillmentStatus", Value: 1}}},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"customers": {
			{Keys: mirrorKey, Options: unique},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "totalSpent", Value: -1}}},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "ordersCount", Value: -1}}},
		},
		"sync_status": {
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "resource", Value: 1}}, Options: unique},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}
	return nil
}
