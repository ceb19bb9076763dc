package schedule

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// upcomingCache holds recent batched "next reminder" lookups for a short TTL.
// Keys are the sorted joined id set, so the same batch in any order hits the
// same entry. Any state change for a message invalidates every entry that
// includes that message id.
type upcomingCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	result   map[uuid.UUID][]Upcoming
	ids      map[uuid.UUID]bool
	storedAt time.Time
}

func newUpcomingCache(ttl time.Duration) *upcomingCache {
	return &upcomingCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*cacheEntry),
	}
}

// cacheKey expects ids already sorted and deduplicated.
func cacheKey(ids []uuid.UUID) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	return b.String()
}

func (c *upcomingCache) get(ids []uuid.UUID) (map[uuid.UUID][]Upcoming, bool) {
	key := cacheKey(ids)
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.result, true
}

func (c *upcomingCache) set(ids []uuid.UUID, result map[uuid.UUID][]Upcoming) {
	idSet := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(ids)] = &cacheEntry{
		result:   result,
		ids:      idSet,
		storedAt: c.now(),
	}
}

// Invalidate drops every entry whose id set intersects ids.
func (c *upcomingCache) Invalidate(ids []uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		for _, id := range ids {
			if entry.ids[id] {
				delete(c.entries, key)
				break
			}
		}
	}
}
