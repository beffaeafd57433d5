package control

import (
	"sync"
	"time"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// ResourceKey names one daemon-owned resource held in the cache.
type ResourceKey string

const (
	ResourceJobs             ResourceKey = "jobs"
	ResourceSettings         ResourceKey = "settings"
	ResourceCredentialStatus ResourceKey = "credential_status"
)

// cacheEntry holds the last-known snapshot of one resource. An invalidated
// entry keeps its value so consumers can render the previous snapshot while
// a refetch is in flight.
type cacheEntry struct {
	value     any
	fetchedAt time.Time
	valid     bool
}

// Cache is the resource-keyed snapshot store shared by every consumer of
// daemon state. Each write is a full-replace snapshot, never a partial patch.
type Cache struct {
	mu      sync.RWMutex
	entries map[ResourceKey]cacheEntry
	subs    []func(ResourceKey)
	now     func() time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[ResourceKey]cacheEntry),
		now:     time.Now,
	}
}

// Subscribe registers fn to run whenever a key is invalidated or replaced.
// Subscribers drive refetch-then-rerender; fn must not block.
func (c *Cache) Subscribe(fn func(ResourceKey)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Put stores a fresh snapshot for key and notifies subscribers.
func (c *Cache) Put(key ResourceKey, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, fetchedAt: c.now(), valid: true}
	subs := c.subs
	c.mu.Unlock()

	for _, fn := range subs {
		fn(key)
	}
}

// Invalidate marks the snapshot for key as out of date and notifies
// subscribers. The previous value remains readable until replaced.
func (c *Cache) Invalidate(key ResourceKey) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok {
		entry.valid = false
		c.entries[key] = entry
	}
	subs := c.subs
	c.mu.Unlock()

	for _, fn := range subs {
		fn(key)
	}
}

// Valid reports whether key holds a snapshot that has not been invalidated.
func (c *Cache) Valid(key ResourceKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return ok && entry.valid
}

// Age returns the time since key was last fetched, or false if never.
func (c *Cache) Age(key ResourceKey) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return c.now().Sub(entry.fetchedAt), true
}

// get returns the raw stored value for key.
func (c *Cache) get(key ResourceKey) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.value, true
}

// Jobs returns the last job-list snapshot.
func (c *Cache) Jobs() ([]model.Job, bool) {
	v, ok := c.get(ResourceJobs)
	if !ok {
		return nil, false
	}
	jobs, ok := v.([]model.Job)
	return jobs, ok
}

// Settings returns the last authoritative settings snapshot.
func (c *Cache) Settings() (model.Settings, bool) {
	v, ok := c.get(ResourceSettings)
	if !ok {
		return model.Settings{}, false
	}
	settings, ok := v.(model.Settings)
	return settings, ok
}

// CredentialStatus returns the last credential status snapshot.
func (c *Cache) CredentialStatus() (model.CredentialStatus, bool) {
	v, ok := c.get(ResourceCredentialStatus)
	if !ok {
		return model.CredentialStatus{}, false
	}
	status, ok := v.(model.CredentialStatus)
	return status, ok
}
