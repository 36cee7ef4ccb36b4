package cache

import (
	"context"
	"time"
)

// Cache stores encoded catalog snapshots. Implementations must treat a
// missing key as a miss, not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	KeyProducts  = "mrchooks:catalog:products"
	KeyInventory = "mrchooks:catalog:inventory"
)

// CatalogKeys are dropped on every write that touches products or stock.
var CatalogKeys = []string{KeyProducts, KeyInventory}

type Noop struct{}

func (Noop) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (Noop) Delete(_ context.Context, _ ...string) error {
	return nil
}
