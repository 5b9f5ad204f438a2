package authz

import (
	"sync"
	"time"
)

// defaultCacheTTL bounds how long a resolved permission set may be
// reused before the store is consulted again.
const defaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	set        PermissionSet
	resolvedAt time.Time
}

// permissionCache memoizes resolved permission sets per user. Expiry
// is checked at lookup time; there is no background sweep, so stale
// entries linger until overwritten, invalidated or process restart.
type permissionCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]cacheEntry
}

func newPermissionCache(ttl time.Duration, now func() time.Time) *permissionCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &permissionCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[int64]cacheEntry),
	}
}

func (c *permissionCache) get(userID int64) (PermissionSet, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.resolvedAt) >= c.ttl {
		return nil, false
	}
	return entry.set, true
}

func (c *permissionCache) set(userID int64, set PermissionSet) {
	c.mu.Lock()
	c.entries[userID] = cacheEntry{set: set, resolvedAt: c.now()}
	c.mu.Unlock()
}

func (c *permissionCache) invalidate(userID int64) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
