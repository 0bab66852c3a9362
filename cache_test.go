package notionpub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eringen/notionpub/notion"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, s *Store) (*ContentCache, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewContentCache(s, time.Minute)
	c.now = clock.Now
	return c, clock
}

func TestCacheLoadsOnce(t *testing.T) {
	c, _ := newTestCache(t, nil)
	var calls atomic.Int32
	load := func(context.Context) (string, error) {
		calls.Add(1)
		return "v1", nil
	}

	for i := 0; i < 3; i++ {
		v, err := Get(context.Background(), c, "k", load)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v != "v1" {
			t.Errorf("Get = %q, want v1", v)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("load called %d times, want 1", n)
	}
}

func TestCacheServesStaleWhileRefreshing(t *testing.T) {
	c, clock := newTestCache(t, nil)
	ctx := context.Background()
	var version atomic.Int32
	version.Store(1)
	load := func(context.Context) (int32, error) {
		return version.Load(), nil
	}

	if v, _ := Get(ctx, c, "k", load); v != 1 {
		t.Fatalf("first Get = %d, want 1", v)
	}
	version.Store(2)
	clock.Advance(2 * time.Minute)

	v, err := Get(ctx, c, "k", load)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != 1 {
		t.Errorf("stale Get = %d, want the cached 1", v)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, _ := Get(ctx, c, "k", load); v == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("background refresh never replaced the stale value")
}

func TestCacheFallsBackToSnapshot(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	warm, _ := newTestCache(t, s)
	want := []string{"a", "b"}
	if _, err := Get(ctx, warm, "query:x", func(context.Context) ([]string, error) { return want, nil }); err != nil {
		t.Fatalf("Get: %v", err)
	}

	// A fresh cache over the same store, as after a restart with Notion down.
	cold, _ := newTestCache(t, s)
	got, err := Get(ctx, cold, "query:x", func(context.Context) ([]string, error) {
		return nil, errors.New("connection refused")
	})
	if err != nil {
		t.Fatalf("Get should serve the snapshot, got %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Get = %v, want %v", got, want)
	}
	if entries := cold.Entries(); len(entries) != 1 || entries[0].Key != "query:x" {
		t.Errorf("snapshot should be kept in memory, entries = %+v", entries)
	}
}

func TestCacheErrorWithoutSnapshot(t *testing.T) {
	c, _ := newTestCache(t, setupTestStore(t))
	boom := errors.New("boom")
	_, err := Get(context.Background(), c, "k", func(context.Context) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestCacheNotFound(t *testing.T) {
	s := setupTestStore(t)
	s.SaveSnapshot("object:gone", []byte(`"old"`), time.Now())
	c, _ := newTestCache(t, s)

	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", ErrNotFound},
		{"api", &notion.APIError{Status: 404, Code: "object_not_found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Get(context.Background(), c, "object:gone", func(context.Context) (string, error) {
				return "", tt.err
			})
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestCacheInvalidateAndEntries(t *testing.T) {
	c, clock := newTestCache(t, nil)
	ctx := context.Background()
	load := func(context.Context) (string, error) { return "v", nil }

	Get(ctx, c, "tree:b", load)
	clock.Advance(2 * time.Minute)
	Get(ctx, c, "object:a", load)

	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries = %+v", entries)
	}
	if entries[0].Key != "object:a" || entries[1].Key != "tree:b" {
		t.Errorf("Entries should be sorted by key, got %s, %s", entries[0].Key, entries[1].Key)
	}
	if entries[0].Stale || !entries[1].Stale {
		t.Errorf("stale flags = %v, %v; want false, true", entries[0].Stale, entries[1].Stale)
	}

	c.Invalidate("tree:b")
	if n := len(c.Entries()); n != 1 {
		t.Errorf("after Invalidate: %d entries, want 1", n)
	}
	c.InvalidateAll()
	if n := len(c.Entries()); n != 0 {
		t.Errorf("after InvalidateAll: %d entries, want 0", n)
	}
}
