package notionpub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/views"
)

// ErrNotFound is returned when a requested page, database or snapshot does
// not exist.
var ErrNotFound = errors.New("not found")

const (
	refreshTimeout = 2 * time.Minute
	retryDelay     = time.Minute
)

type cacheEntry struct {
	value      any
	fetched    time.Time
	refreshing bool
	retryAt    time.Time
}

// ContentCache is an in-memory stale-while-revalidate cache of Notion content.
// Fresh values are served from memory; stale ones are served while a single
// background refresh runs. Every successful load is written to the Store as a
// snapshot, which is served when Notion cannot be reached.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	store   *Store
	group   singleflight.Group
	now     func() time.Time
}

// NewContentCache creates a ContentCache. store may be nil.
func NewContentCache(s *Store, ttl time.Duration) *ContentCache {
	return &ContentCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		store:   s,
		now:     time.Now,
	}
}

// Get returns the value cached under key, calling load on a miss.
func Get[T any](ctx context.Context, c *ContentCache, key string, load func(context.Context) (T, error)) (T, error) {
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		if v, typed := e.value.(T); typed {
			if now.Sub(e.fetched) >= c.ttl && !e.refreshing && now.After(e.retryAt) {
				e.refreshing = true
				go c.refresh(key, func(ctx context.Context) (any, error) { return load(ctx) })
			}
			c.mu.Unlock()
			return v, nil
		}
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, v)
		return v, nil
	})
	if err == nil {
		return v.(T), nil
	}

	var zero T
	if errors.Is(err, ErrNotFound) || notion.IsNotFound(err) {
		return zero, ErrNotFound
	}
	if v, at, ok := loadSnapshot[T](c, key); ok {
		log.Printf("cache: %s: serving snapshot from %s: %v", key, at.Format(time.RFC3339), err)
		return v, nil
	}
	return zero, err
}

func (c *ContentCache) refresh(key string, load func(context.Context) (any, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	_, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, v)
		return v, nil
	})
	if err == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.refreshing = false
	if errors.Is(err, ErrNotFound) || notion.IsNotFound(err) {
		delete(c.entries, key)
		return
	}
	e.retryAt = c.now().Add(retryDelay)
	log.Printf("cache: refresh %s: %v", key, err)
}

func (c *ContentCache) set(key string, v any) {
	now := c.now()
	c.mu.Lock()
	c.entries[key] = &cacheEntry{value: v, fetched: now}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: encode %s: %v", key, err)
		return
	}
	if err := c.store.SaveSnapshot(key, payload, now); err != nil {
		log.Printf("cache: save snapshot %s: %v", key, err)
	}
}

// loadSnapshot decodes the stored snapshot of key and keeps it in memory as a
// stale entry, so the next request retries upstream in the background.
func loadSnapshot[T any](c *ContentCache, key string) (T, time.Time, bool) {
	var v T
	if c.store == nil {
		return v, time.Time{}, false
	}
	snap, err := c.store.GetSnapshot(key)
	if err != nil {
		return v, time.Time{}, false
	}
	if err := json.Unmarshal(snap.Payload, &v); err != nil {
		log.Printf("cache: decode snapshot %s: %v", key, err)
		return v, time.Time{}, false
	}
	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		value:   v,
		fetched: snap.FetchedAt,
		retryAt: c.now().Add(retryDelay),
	}
	c.mu.Unlock()
	return v, snap.FetchedAt, true
}

// Invalidate drops key so the next read loads it from Notion.
func (c *ContentCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll drops every cached value. Snapshots are kept as a fallback.
func (c *ContentCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Entries lists the cached keys for the admin dashboard.
func (c *ContentCache) Entries() []views.CacheEntry {
	now := c.now()
	c.mu.RLock()
	out := make([]views.CacheEntry, 0, len(c.entries))
	for k, e := range c.entries {
		out = append(out, views.CacheEntry{
			Key:       k,
			FetchedAt: e.fetched,
			Stale:     now.Sub(e.fetched) >= c.ttl,
		})
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
