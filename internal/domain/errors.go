package domain

import "errors"

var (
	// ErrSyncInProgress is returned when a sync is requested for a shop that
	// already has one in flight. The caller is not queued; it must retry later.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrShopNotFound is returned for requests against an unknown shop domain.
	ErrShopNotFound = errors.New("shop not found")

	// ErrMissingAccessToken is returned when a shop has no stored credential.
	// It aborts a sync before any network call is made.
	ErrMissingAccessToken = errors.New("shop has no access token")

	// ErrUnknownResource is returned for resource names outside
	// products/orders/customers.
	ErrUnknownResource = errors.New("unknown resource type")
)
