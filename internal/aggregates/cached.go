package aggregates

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// DefaultCacheTTL is how long a fetched snapshot is reused.
const DefaultCacheTTL = 5 * time.Minute

// DefaultFetchTimeout bounds a shared upstream fetch, which no single
// caller's context can cancel.
const DefaultFetchTimeout = 30 * time.Second

type cacheEntry struct {
	snapshot  types.AggregateSnapshot
	fetchedAt time.Time
}

// CachedProvider wraps another provider with an in-memory TTL cache.
// Failed fetches are not cached. Concurrent misses for the same filter share
// one upstream call. That call outlives any one caller: a caller whose context
// ends stops waiting, the others still get the result.
type CachedProvider struct {
	next         SnapshotProvider
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	group        singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCachedProvider creates a cache in front of next. A ttl <= 0 uses DefaultCacheTTL.
func NewCachedProvider(next SnapshotProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		next:         next,
		ttl:          ttl,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		entries:      make(map[string]cacheEntry),
	}
}

// Snapshot returns a cached snapshot when fresh, otherwise fetches and stores it.
func (c *CachedProvider) Snapshot(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
	key := filter.Key()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) <= c.ttl {
		return entry.snapshot, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(fetchCtx, c.fetchTimeout)
		defer cancel()
		snap, err := c.next.Snapshot(fctx, filter)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{snapshot: snap, fetchedAt: c.now()}
		c.mu.Unlock()
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return types.AggregateSnapshot{}, res.Err
		}
		return res.Val.(types.AggregateSnapshot), nil
	case <-ctx.Done():
		return types.AggregateSnapshot{}, ctx.Err()
	}
}

// Invalidate drops the cached snapshot for filter.
func (c *CachedProvider) Invalidate(filter types.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, filter.Key())
}

// Purge drops every cached snapshot.
func (c *CachedProvider) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of cached snapshots, fresh or stale.
func (c *CachedProvider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
