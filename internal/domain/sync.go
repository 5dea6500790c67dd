package domain

import (
	"fmt"
	"time"
)

// ResourceType identifies one mirrored collection.
type ResourceType string

const (
	ResourceProducts  ResourceType = "products"
	ResourceOrders    ResourceType = "orders"
	ResourceCustomers ResourceType = "customers"
)

// AllResourceTypes lists the resources of a full sync in the order they run.
// The ordering is load-bearing: downstream aggregates assume products, orders
// and customers were written in the same wave.
var AllResourceTypes = []ResourceType{ResourceProducts, ResourceOrders, ResourceCustomers}

// ParseResourceType validates a resource name from an API request.
func ParseResourceType(s string) (ResourceType, error) {
	switch ResourceType(s) {
	case ResourceProducts, ResourceOrders, ResourceCustomers:
		return ResourceType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
}

// SyncStatus is the persisted state of the last sync attempt for one
// (shop, resource) pair. One document exists per pair; it is never deleted.
type SyncStatus struct {
	ShopDomain         string       `json:"shop_domain" bson:"shopDomain"`
	Resource           ResourceType `json:"resource" bson:"resource"`
	LastSyncStarted    *time.Time   `json:"last_sync_started,omitempty" bson:"lastSyncStarted,omitempty"`
	LastSyncCompleted  *time.Time   `json:"last_sync_completed,omitempty" bson:"lastSyncCompleted,omitempty"`
	LastSyncPageCursor int64        `json:"last_sync_page_cursor" bson:"lastSyncPageCursor"`
	TotalRecords       int          `json:"total_records" bson:"totalRecords"`
	IsRunning          bool         `json:"is_running" bson:"isRunning"`
	ErrorMessage       string       `json:"error_message,omitempty" bson:"errorMessage,omitempty"`
	NextScheduledSync  *time.Time   `json:"next_scheduled_sync,omitempty" bson:"nextScheduledSync,omitempty"`
}

// SyncResult is the outcome of syncing one resource for one shop. Per-record
// persistence failures are counted here instead of aborting the page.
type SyncResult struct {
	Resource ResourceType `json:"resource"`
	Synced   int          `json:"synced"`
	Failed   int          `json:"failed"`
	Pages    int          `json:"pages"`
	Error    string       `json:"error,omitempty"`
}
