package qa

import (
	"context"
	"sync"
	"time"
)

// CacheEntry holds the provider resources kept warm for one document.
type CacheEntry struct {
	VectorStoreID string
	AssistantID   string
	ThreadID      string
	LastUsed      time.Time
}

// ResourceCache keeps per-document provider resources in memory so repeat
// questions skip provisioning and reuse the same thread. Entries idle past
// the retention window are evicted by the sweep loop.
type ResourceCache struct {
	mu        sync.Mutex
	entries   map[string]CacheEntry
	retention time.Duration
	now       func() time.Time
}

// NewResourceCache constructs a cache. now may be nil for time.Now.
func NewResourceCache(retention time.Duration, now func() time.Time) *ResourceCache {
	if now == nil {
		now = time.Now
	}
	return &ResourceCache{
		entries:   make(map[string]CacheEntry),
		retention: retention,
		now:       now,
	}
}

// Get returns the entry for a document and marks it used.
func (c *ResourceCache) Get(documentID string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[documentID]
	if !ok {
		return CacheEntry{}, false
	}
	entry.LastUsed = c.now()
	c.entries[documentID] = entry
	return entry, true
}

// Put stores an entry for a document, stamping LastUsed.
func (c *ResourceCache) Put(documentID string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry.LastUsed = c.now()
	c.entries[documentID] = entry
}

// Delete drops a document's entry.
func (c *ResourceCache) Delete(documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, documentID)
}

// Len reports the number of cached entries.
func (c *ResourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep evicts entries idle longer than the retention window and returns
// how many were removed.
func (c *ResourceCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.retention)
	removed := 0
	for documentID, entry := range c.entries {
		if entry.LastUsed.Before(cutoff) {
			delete(c.entries, documentID)
			removed++
		}
	}
	return removed
}

// StartSweep runs Sweep every interval until ctx is cancelled.
func (c *ResourceCache) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
