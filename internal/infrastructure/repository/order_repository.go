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

var orderSortFields = map[string]string{
	"created_at":   "createdAt",
	"updated_at":   "updatedAt",
	"total_price":  "totalPrice",
	"order_number": "orderNumber",
	"last_synced":  "lastSynced",
}

// MongoOrderRepository implements OrderRepository using MongoDB.
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository.
func NewMongoOrderRepository(db *mongo.Database) ports.OrderRepository {
	return &MongoOrderRepository{collection: db.Collection("orders")}
}

// Upsert replaces the mirrored order keyed by (shopDomain, shopifyId),
// stamping lastSynced. Single atomic write, last write wins.
func (r *MongoOrderRepository) Upsert(ctx context.Context, order *domain.Order) error {
	order.LastSynced = time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shopDomain": order.ShopDomain, "shopifyId": order.ShopifyID}
	update := bson.M{"$set": order}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert order %d: %w", order.ShopifyID, err)
	}
	return nil
}

func orderFilter(q ports.OrderQuery) bson.M {
	filter := bson.M{"shopDomain": q.ShopDomain}
	if q.Search != "" {
		re := searchRegex(q.Search)
		filter["$or"] = []bson.M{
			{"name": re},
			{"email": re},
		}
	}
	if q.FinancialStatus != "" {
		filter["financialStatus"] = q.FinancialStatus
	}
	if q.FulfillmentStatus != "" {
		filter["fulfillmentStatus"] = q.FulfillmentStatus
	}
	if q.DateFrom != nil || q.DateTo != nil {
		created := bson.M{}
		if q.DateFrom != nil {
			created["$gte"] = *q.DateFrom
		}
		if q.DateTo != nil {
			created["$lte"] = *q.DateTo
		}
		filter["createdAt"] = created
	}
	return filter
}

// List serves the facade's filtered order view. The revenue/count/average
// aggregates are computed over the filtered set, not the whole shop.
func (r *MongoOrderRepository) List(ctx context.Context, q ports.OrderQuery) (*ports.OrderPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)
	filter := orderFilter(q)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	sortField, ok := orderSortFields[q.SortBy]
	if !ok {
		sortField = "createdAt"
	}
	findOpts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: sortField, Value: sortDirection(q.SortOrder)}})

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []domain.Order{}
	var stamps []time.Time
	for cursor.Next(ctx) {
		var o domain.Order
		if err := cursor.Decode(&o); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, o)
		stamps = append(stamps, o.LastSynced)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	aggregates, err := r.aggregate(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ports.OrderPage{
		Orders: orders,
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

func (r *MongoOrderRepository) aggregate(ctx context.Context, filter bson.M) (ports.OrderAggregates, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"totalRevenue": bson.M{"$sum": "$totalPrice"},
			"orderCount":   bson.M{"$sum": 1},
			"averageOrder": bson.M{"$avg": "$totalPrice"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return ports.OrderAggregates{}, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TotalRevenue float64 `bson:"totalRevenue"`
		OrderCount   int64   `bson:"orderCount"`
		AverageOrder float64 `bson:"averageOrder"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return ports.OrderAggregates{}, fmt.Errorf("failed to decode order aggregates: %w", err)
	}
	if len(rows) == 0 {
		return ports.OrderAggregates{}, nil
	}
	return ports.OrderAggregates{
		TotalRevenue:      rows[0].TotalRevenue,
		OrderCount:        rows[0].OrderCount,
		AverageOrderValue: rows[0].AverageOrder,
	}, nil
}

// RevenueSince computes revenue/count/average for orders created after since.
func (r *MongoOrderRepository) RevenueSince(ctx context.Context, shopDomain string, since time.Time) (ports.OrderAggregates, error) {
	return r.aggregate(ctx, bson.M{
		"shopDomain": shopDomain,
		"createdAt":  bson.M{"$gte": since},
	})
}

// TopProducts ranks products by line-item revenue over the period.
func (r *MongoOrderRepository) TopProducts(ctx context.Context, shopDomain string, since time.Time, limit int) ([]ports.TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"shopDomain": shopDomain,
			"createdAt":  bson.M{"$gte": since},
		}}},
		{{Key: "$unwind", Value: "$lineItems"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$lineItems.productId",
			"title":    bson.M{"$first": "$lineItems.title"},
			"quantity": bson.M{"$sum": "$lineItems.quantity"},
			"revenue": bson.M{"$sum": bson.M{
				"$multiply": bson.A{"$lineItems.price", "$lineItems.quantity"},
			}},
		}}},
		{{Key: "$sort", Value: bson.M{"revenue": -1}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	defer cursor.Close(ctx)

	var top []ports.TopProduct
	if err := cursor.All(ctx, &top); err != nil {
		return nil, fmt.Errorf("failed to decode top products: %w", err)
	}
	return top, nil
}

// Recent returns the latest orders for a shop by creation time.
func (r *MongoOrderRepository) Recent(ctx context.Context, shopDomain string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"shopDomain": shopDomain}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode recent orders: %w", err)
	}
	return orders, nil
}

// MonthlyRevenue buckets revenue by calendar month over the trailing period.
func (r *MongoOrderRepository) MonthlyRevenue(ctx context.Context, shopDomain string, months int) ([]ports.MonthlyRevenue, error) {
	if months <= 0 {
		months = 12
	}
	since := time.Now().AddDate(0, -months, 0)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"shopDomain": shopDomain,
			"createdAt":  bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m",
				"date":   "$createdAt",
			}},
			"revenue": bson.M{"$sum": "$totalPrice"},
			"orders":  bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var trend []ports.MonthlyRevenue
	if err := cursor.All(ctx, &trend); err != nil {
		return nil, fmt.Errorf("failed to decode monthly revenue: %w", err)
	}
	return trend, nil
}
