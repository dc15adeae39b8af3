package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Snapshotter supplies a full dataset snapshot.
type Snapshotter[T any] interface {
	Snapshot(ctx context.Context) ([]T, error)
}

// SnapshotFunc adapts a function to Snapshotter.
type SnapshotFunc[T any] func(ctx context.Context) ([]T, error)

// Snapshot calls f.
func (f SnapshotFunc[T]) Snapshot(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// SnapshotCache memoizes a dataset snapshot for a short TTL so that rapid
// query changes from the dashboard do not re-read the table every time.
// Mutations must call Invalidate. A non-positive TTL disables caching.
type SnapshotCache[T any] struct {
	name   string
	source Snapshotter[T]
	lru    *expirable.LRU[string, []T]

	mu  sync.Mutex
	gen uint64 // bumped by Invalidate; guarded by mu
}

// NewSnapshotCache wraps source. name identifies the dataset in the cache.
func NewSnapshotCache[T any](name string, source Snapshotter[T], ttl time.Duration) *SnapshotCache[T] {
	c := &SnapshotCache[T]{name: name, source: source}
	if ttl > 0 {
		c.lru = expirable.NewLRU[string, []T](1, nil, ttl)
	}
	return c
}

// Snapshot returns the cached snapshot or loads a fresh one. The returned
// slice is a copy and may be retained by the caller.
func (c *SnapshotCache[T]) Snapshot(ctx context.Context) ([]T, error) {
	if c.lru != nil {
		if rows, ok := c.lru.Get(c.name); ok {
			return slices.Clone(rows), nil
		}
	}

	gen := c.generation()
	rows, err := c.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if c.lru != nil {
		// A load that raced with Invalidate may hold pre-mutation rows.
		c.mu.Lock()
		if c.gen == gen {
			c.lru.Add(c.name, slices.Clone(rows))
		}
		c.mu.Unlock()
	}
	return rows, nil
}

// Invalidate drops the cached snapshot and discards any load in flight.
func (c *SnapshotCache[T]) Invalidate() {
	if c.lru == nil {
		return
	}
	c.mu.Lock()
	c.gen++
	c.lru.Remove(c.name)
	c.mu.Unlock()
}

func (c *SnapshotCache[T]) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}
