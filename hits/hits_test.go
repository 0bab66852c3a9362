package hits

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Safari/605.1.15"
	pageID    = "01234567-89ab-cdef-0123-456789abcdef"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "hits.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	h, err := NewHandler(store, time.UTC)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}

func TestIsBot(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{browserUA, false},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{"curl/8.4.0", true},
		{"", true},
	}
	for _, tt := range tests {
		if got := IsBot(tt.ua); got != tt.want {
			t.Errorf("IsBot(%q) = %v, want %v", tt.ua, got, tt.want)
		}
	}
}

func TestVisitorHash(t *testing.T) {
	a := VisitorHash("salt", "1.2.3.4", browserUA, "2024-01-01")
	if len(a) != 16 {
		t.Fatalf("hash length = %d", len(a))
	}
	if a != VisitorHash("salt", "1.2.3.4", browserUA, "2024-01-01") {
		t.Error("hash is not deterministic")
	}
	if a == VisitorHash("salt", "1.2.3.4", browserUA, "2024-01-02") {
		t.Error("hash should change with the day")
	}
	if a == VisitorHash("other", "1.2.3.4", browserUA, "2024-01-01") {
		t.Error("hash should change with the salt")
	}
}

func TestSaltPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hits.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	first, err := loadSalt(store)
	if err != nil {
		t.Fatalf("loadSalt: %v", err)
	}
	store.Close()

	store, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	second, err := loadSalt(store)
	if err != nil {
		t.Fatalf("loadSalt: %v", err)
	}
	if first == "" || first != second {
		t.Fatalf("salt not persisted: %q vs %q", first, second)
	}
}

func TestRecordCountsUniqueVisitorsPerDay(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()
	day1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return day1 }

	for _, ip := range []string{"1.1.1.1", "1.1.1.1", "2.2.2.2"} {
		if _, err := h.Record(ctx, pageID, ip, browserUA); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if ok, _ := h.Record(ctx, pageID, "3.3.3.3", "Googlebot"); ok {
		t.Error("bots should not be counted")
	}

	c, err := h.Counts(ctx, pageID)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if c != (Counts{Today: 2, Total: 2}) {
		t.Errorf("day 1 counts = %+v", c)
	}

	h.now = func() time.Time { return day1.Add(24 * time.Hour) }
	if _, err := h.Record(ctx, pageID, "1.1.1.1", browserUA); err != nil {
		t.Fatalf("Record: %v", err)
	}
	c, _ = h.Counts(ctx, pageID)
	if c != (Counts{Today: 1, Total: 3}) {
		t.Errorf("day 2 counts = %+v", c)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("ip") || !rl.allow("ip") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("ip") {
		t.Fatal("third request should be limited")
	}
	if !rl.allow("other") {
		t.Fatal("keys are limited independently")
	}

	now = now.Add(2 * time.Minute)
	if !rl.allow("ip") {
		t.Fatal("window should have expired")
	}
	now = now.Add(2 * time.Minute)
	rl.sweep()
	if len(rl.buckets) != 0 {
		t.Errorf("sweep left %d keys", len(rl.buckets))
	}
}

func TestBadgeHandler(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/hits/0123456789abcdef0123456789abcdef/badge.svg", nil)
	req.Header.Set("User-Agent", browserUA)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/svg+xml") {
		t.Errorf("content type = %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, ">1 / 1<") {
		t.Errorf("badge should show one visit: %s", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/hits/not-an-id/badge.svg", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("invalid id status = %d", rec.Code)
	}
}

func TestBadgeEscapes(t *testing.T) {
	svg := Badge("<x>", "1 / 2")
	if strings.Contains(svg, "<x>") {
		t.Errorf("label not escaped: %s", svg)
	}
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Errorf("not an svg document")
	}
}
