package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/internal/store"
)

// NewStore creates an in-memory SQLiteStore for testing.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewDatasetStore is NewStore with the dataset tables migrated.
func NewDatasetStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db := NewStore(t)
	if err := db.Migrate(context.Background(), "datasets", services.Migrations()); err != nil {
		t.Fatalf("testutil.NewDatasetStore: migrate: %v", err)
	}
	return db
}

// NewDatasets returns services.Datasets over a fresh migrated store. The
// cache TTL is long enough that a stale read in a test means a missing
// invalidation.
func NewDatasets(t *testing.T) *services.Datasets {
	t.Helper()
	return services.NewDatasets(NewDatasetStore(t).DB(), time.Hour, zap.NewNop())
}
