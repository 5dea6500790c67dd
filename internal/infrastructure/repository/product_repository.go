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

var productSortFields = map[string]string{
	"title":        "title",
	"vendor":       "vendor",
	"product_type": "productType",
	"created_at":   "createdAt",
	"updated_at":   "updatedAt",
	"last_synced":  "lastSynced",
}

// MongoProductRepository implements ProductRepository using MongoDB.
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new MongoDB product repository.
func NewMongoProductRepository(db *mongo.Database) ports.ProductRepository {
	return &MongoProductRepository{collection: db.Collection("products")}
}

// Upsert replaces the mirrored product keyed by (shopDomain, shopifyId).
// Last write wins: every payload field is overwritten, lastSynced stamped.
// The single UpdateOne makes the replace atomic against concurrent writers.
func (r *MongoProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	product.LastSynced = time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shopDomain": product.ShopDomain, "shopifyId": product.ShopifyID}
	update := bson.M{"$set": product}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", product.ShopifyID, err)
	}
	return nil
}

// List serves the facade's filtered, sorted, paginated product view together
// with the distinct vendor/type facets for the shop.
func (r *MongoProductRepository) List(ctx context.Context, q ports.ProductQuery) (*ports.ProductPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	filter := bson.M{"shopDomain": q.ShopDomain}
	if q.Search != "" {
		re := searchRegex(q.Search)
		filter["$or"] = []bson.M{
			{"title": re},
			{"vendor": re},
			{"tags": re},
		}
	}
	if q.Vendor != "" {
		filter["vendor"] = q.Vendor
	}
	if q.ProductType != "" {
		filter["productType"] = q.ProductType
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	sortField, ok := productSortFields[q.SortBy]
	if !ok {
		sortField = "updatedAt"
	}
	findOpts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: sortField, Value: sortDirection(q.SortOrder)}})

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []domain.Product{}
	var stamps []time.Time
	for cursor.Next(ctx) {
		var p domain.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, p)
		stamps = append(stamps, p.LastSynced)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	shopFilter := bson.M{"shopDomain": q.ShopDomain}
	vendors, err := r.collection.Distinct(ctx, "vendor", shopFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	types, err := r.collection.Distinct(ctx, "productType", shopFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list product types: %w", err)
	}

	return &ports.ProductPage{
		Products: products,
		Pagination: ports.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages(total, limit),
		},
		Vendors:      distinctStrings(vendors),
		ProductTypes: distinctStrings(types),
		LastSynced:   newestSynced(stamps),
	}, nil
}

// CountForShop returns the number of mirrored products for a shop.
func (r *MongoProductRepository) CountForShop(ctx context.Context, shopDomain string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"shopDomain": shopDomain})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
