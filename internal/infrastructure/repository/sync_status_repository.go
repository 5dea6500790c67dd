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

// MongoSyncStatusRepository implements SyncStatusRepository using MongoDB.
// One document exists per (shopDomain, resource) pair, guaranteed by a
// unique compound index; every transition is a single upsert on that key.
type MongoSyncStatusRepository struct {
	collection *mongo.Collection
}

// NewMongoSyncStatusRepository creates a new MongoDB sync status repository.
func NewMongoSyncStatusRepository(db *mongo.Database) ports.SyncStatusRepository {
	return &MongoSyncStatusRepository{collection: db.Collection("sync_status")}
}

func statusKey(shopDomain string, resource domain.ResourceType) bson.M {
	return bson.M{"shopDomain": shopDomain, "resource": resource}
}

// MarkStarted flips the pair to running and stamps lastSyncStarted. Calling
// it again while already running just refreshes the stamp; the unique index
// means no second document can appear.
func (r *MongoSyncStatusRepository) MarkStarted(ctx context.Context, shopDomain string, resource domain.ResourceType) error {
	update := bson.M{
		"$set": bson.M{
			"isRunning":          true,
			"lastSyncStarted":    time.Now(),
			"lastSyncPageCursor": int64(0),
			"errorMessage":       "",
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, statusKey(shopDomain, resource), update, opts); err != nil {
		return fmt.Errorf("failed to mark sync started: %w", err)
	}
	return nil
}

// MarkCompleted records a successful run: running flag off, completion stamp,
// record volume and the next eligible run time.
func (r *MongoSyncStatusRepository) MarkCompleted(ctx context.Context, shopDomain string, resource domain.ResourceType, totalRecords int, nextSync time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"isRunning":         false,
			"lastSyncCompleted": time.Now(),
			"totalRecords":      totalRecords,
			"errorMessage":      "",
			"nextScheduledSync": nextSync,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, statusKey(shopDomain, resource), update, opts); err != nil {
		return fmt.Errorf("failed to mark sync completed: %w", err)
	}
	return nil
}

// MarkErrored records a failed run. lastSyncCompleted is deliberately not
// touched: a failed resync must not erase the last known-good completion.
func (r *MongoSyncStatusRepository) MarkErrored(ctx context.Context, shopDomain string, resource domain.ResourceType, message string) error {
	update := bson.M{
		"$set": bson.M{
			"isRunning":    false,
			"errorMessage": message,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, statusKey(shopDomain, resource), update, opts); err != nil {
		return fmt.Errorf("failed to mark sync errored: %w", err)
	}
	return nil
}

// UpdateCursor records page progress so a stalled sync is diagnosable from
// the status document alone.
func (r *MongoSyncStatusRepository) UpdateCursor(ctx context.Context, shopDomain string, resource domain.ResourceType, cursor int64) error {
	update := bson.M{"$set": bson.M{"lastSyncPageCursor": cursor}}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, statusKey(shopDomain, resource), update, opts); err != nil {
		return fmt.Errorf("failed to update sync cursor: %w", err)
	}
	return nil
}

// GetStatus returns the latest status per resource for a shop.
func (r *MongoSyncStatusRepository) GetStatus(ctx context.Context, shopDomain string) (map[domain.ResourceType]domain.SyncStatus, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"shopDomain": shopDomain})
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}
	defer cursor.Close(ctx)

	statuses := make(map[domain.ResourceType]domain.SyncStatus)
	for cursor.Next(ctx) {
		var s domain.SyncStatus
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode sync status: %w", err)
		}
		statuses[s.Resource] = s
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return statuses, nil
}
