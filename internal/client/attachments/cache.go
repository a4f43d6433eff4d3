package attachments

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Entry is a cached resolution. A Negative entry records a signing failure
// and carries no URL.
type Entry struct {
	URL       string
	Negative  bool
	ExpiresAt time.Time
}

// Cache maps canonical object paths to signed URLs. It is safe for
// concurrent use; concurrent writers of one path simply overwrite each
// other.
type Cache struct {
	mu            sync.Mutex
	entries       map[string]Entry
	clock         Clock
	refreshBuffer time.Duration
}

// NewCache returns an empty cache. A positive entry stops being served
// refreshBuffer before it expires so callers never hand out a URL that is
// about to lapse.
func NewCache(clock Clock, refreshBuffer time.Duration) *Cache {
	if clock == nil {
		clock = systemClock{}
	}
	return &Cache{
		entries:       make(map[string]Entry),
		clock:         clock,
		refreshBuffer: refreshBuffer,
	}
}

// Get returns the live entry for path. Positive entries are live while
// more than the refresh buffer remains; negative entries until they expire.
func (c *Cache) Get(path string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		return Entry{}, false
	}
	remaining := e.ExpiresAt.Sub(c.clock.Now())
	if e.Negative {
		return e, remaining > 0
	}
	return e, remaining > c.refreshBuffer
}

// Put stores a signed URL valid for ttl.
func (c *Cache) Put(path, url string, ttl time.Duration) Entry {
	return c.set(path, Entry{URL: url, ExpiresAt: c.clock.Now().Add(ttl)})
}

// PutFailure remembers a signing failure for ttl.
func (c *Cache) PutFailure(path string, ttl time.Duration) Entry {
	return c.set(path, Entry{Negative: true, ExpiresAt: c.clock.Now().Add(ttl)})
}

func (c *Cache) set(path string, e Entry) Entry {
	c.mu.Lock()
	c.entries[path] = e
	c.mu.Unlock()
	return e
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Len returns the number of stored entries, live or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
