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

var customerSortFields = map[string]string{
	"email":        "email",
	"first_name":   "firstName",
	"last_name":    "lastName",
	"orders_count": "ordersCount",
	"total_spent":  "totalSpent",
	"created_at":   "createdAt",
	"last_synced":  "lastSynced",
}

// MongoCustomerRepository implements CustomerRepository using MongoDB.
type MongoCustomerRepository struct {
	collection *mongo.Collection
}

// NewMongoCustomerRepository creates a new MongoDB customer repository.
func NewMongoCustomerRepository(db *mongo.Database) ports.CustomerRepository {
	return &MongoCustomerRepository{collection: db.Collection("customers")}
}

// Upsert replaces the mirrored customer keyed by (shopDomain, shopifyId),
// stamping lastSynced. Single atomic write, last write wins.
func (r *MongoCustomerRepository) Upsert(ctx context.Context, customer *domain.Customer) error {
	customer.LastSynced = time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shopDomain": customer.ShopDomain, "shopifyId": customer.ShopifyID}
	update := bson.M{"$set": customer}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert customer %d: %w", customer.ShopifyID, err)
	}
	return nil
}

// List serves the facade's filtered customer view plus count/spend/avg-orders
// aggregates computed over the filtered set.
func (r *MongoCustomerRepository) List(ctx context.Context, q ports.CustomerQuery) (*ports.CustomerPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	filter := bson.M{"shopDomain": q.ShopDomain}
	if q.Search != "" {
		re := searchRegex(q.Search)
		filter["$or"] = []bson.M{
			{"email": re},
			{"firstName": re},
			{"lastName": re},
		}
	}
	if q.State != "" {
		filter["state"] = q.State
	}
	if q.MinOrders != nil || q.MaxOrders != nil {
		orders := bson.M{}
		if q.MinOrders != nil {
			orders["$gte"] = *q.MinOrders
		}
		if q.MaxOrders != nil {
			orders["$lte"] = *q.MaxOrders
		}
		filter["ordersCount"] = orders
	}
	if q.MinSpent != nil || q.MaxSpent != nil {
		spent := bson.M{}
		if q.MinSpent != nil {
			spent["$gte"] = *q.MinSpent
		}
		if q.MaxSpent != nil {
			spent["$lte"] = *q.MaxSpent
		}
		filter["totalSpent"] = spent
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	sortField, ok := customerSortFields[q.SortBy]
	if !ok {
		sortField = "totalSpent"
	}
	findOpts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: sortField, Value: sortDirection(q.SortOrder)}})

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer cursor.Close(ctx)

	customers := []domain.Customer{}
	var stamps []time.Time
	for cursor.Next(ctx) {
		var c domain.Customer
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode customer: %w", err)
		}
		customers = append(customers, c)
		stamps = append(stamps, c.LastSynced)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	aggregates, err := r.aggregate(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ports.CustomerPage{
		Customers: customers,
		Pagination: ports.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages(total, limit),
		},
		Aggregates: aggregates,
		LastSynced: newestSynced(stamps),
	}, nil
}

func (r *MongoCustomerRepository) aggregate(ctx context.Context, filter bson.M) (ports.CustomerAggregates, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"customerCount": bson.M{"$sum": 1},
			"totalSpent":    bson.M{"$sum": "$totalSpent"},
			"averageOrders": bson.M{"$avg": "$ordersCount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return ports.CustomerAggregates{}, fmt.Errorf("failed to aggregate customers: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		CustomerCount int64   `bson:"customerCount"`
		TotalSpent    float64 `bson:"totalSpent"`
		AverageOrders float64 `bson:"averageOrders"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return ports.CustomerAggregates{}, fmt.Errorf("failed to decode customer aggregates: %w", err)
	}
	if len(rows) == 0 {
		return ports.CustomerAggregates{}, nil
	}
	return ports.CustomerAggregates{
		CustomerCount: rows[0].CustomerCount,
		TotalSpent:    rows[0].TotalSpent,
		AverageOrders: rows[0].AverageOrders,
	}, nil
}

// CountForShop returns the number of mirrored customers for a shop.
func (r *MongoCustomerRepository) CountForShop(ctx context.Context, shopDomain string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"shopDomain": shopDomain})
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}
