package core

import (
	"context"
	"time"

	"github.com/campus-tools/adeplanning/internal/domain/model"
	"github.com/emersion/go-ical"
)

// This file contains the port definitions (hexagonal architecture) the service layer depends on.
// Adapters in internal/adapters and internal/data provide the implementations.

// ChildLister lists the direct children of a resource folder.
// Implementations must never return the queried folder itself.
type ChildLister interface {
	ListChildren(ctx context.Context, folderID, depth int) ([]model.ChildEntry, error)
}

// IDLookup resolves a CAS user id to the resource id of that user's planning.
type IDLookup interface {
	LookupID(ctx context.Context, casUID string) (int, error)
}

// RemoteSession is an RPC session that must complete its handshake before
// listing or lookup calls are accepted.
type RemoteSession interface {
	ChildLister
	IDLookup
	Connect(ctx context.Context) error
	Connected() bool
}

// FeedSource fetches the raw calendar components for a resource over a resolved date range.
type FeedSource interface {
	Fetch(ctx context.Context, resourceID int, dates model.DateRange) ([]*ical.Component, error)
}

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}
