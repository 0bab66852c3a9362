package linkpreview

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL     = 24 * time.Hour
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 512 << 10
	maxEntries     = 4096
)

type entry struct {
	preview *Preview
	err     error
	at      time.Time
}

// Service caches previews in memory and fetches missing ones in the
// background. It is safe for concurrent use.
type Service struct {
	client  *http.Client
	ttl     time.Duration
	timeout time.Duration

	mu    sync.RWMutex
	cache map[string]entry
	group singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient sets the client used for fetches. The default client only
// connects to public addresses; a replacement takes over that duty.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// WithTTL sets how long previews and failures are kept.
func WithTTL(d time.Duration) Option {
	return func(s *Service) { s.ttl = d }
}

// NewService returns an empty preview cache.
func NewService(opts ...Option) *Service {
	s := &Service{
		client:  newPublicClient(),
		ttl:     defaultTTL,
		timeout: defaultTimeout,
		cache:   make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns a cached preview. On a miss or an expired entry it starts a
// background fetch; a miss reports false so the caller can render a plain
// link.
func (s *Service) Lookup(rawURL string) (*Preview, bool) {
	s.mu.RLock()
	e, ok := s.cache[rawURL]
	s.mu.RUnlock()

	if !ok || time.Since(e.at) > s.ttl {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if _, err := s.Fetch(ctx, rawURL); err != nil {
				log.Printf("linkpreview: %s: %v", rawURL, err)
			}
		}()
	}
	if !ok || e.preview == nil {
		return nil, false
	}
	return e.preview, true
}

// Fetch downloads and parses rawURL, sharing in-flight requests for the same
// URL. Results, including failures, are cached.
func (s *Service) Fetch(ctx context.Context, rawURL string) (*Preview, error) {
	v, err, _ := s.group.Do(rawURL, func() (any, error) {
		p, err := s.fetch(ctx, rawURL)
		s.store(rawURL, entry{preview: p, err: err, at: time.Now()})
		return p, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*Preview), nil
}

func (s *Service) fetch(ctx context.Context, rawURL string) (*Preview, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("linkpreview: unsupported url %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; notionpub-linkpreview/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("linkpreview: content type %q", ct)
	}

	p, err := Parse(io.LimitReader(resp.Body, maxBodyBytes), resp.Request.URL)
	if err != nil {
		return nil, err
	}
	p.URL = rawURL
	p.FetchedAt = time.Now()
	return p, nil
}

func (s *Service) store(key string, e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[key]; !ok && len(s.cache) >= maxEntries {
		s.sweepLocked(e.at)
		for k := range s.cache {
			if len(s.cache) < maxEntries {
				break
			}
			delete(s.cache, k)
		}
	}
	s.cache[key] = e
}

func (s *Service) sweepLocked(now time.Time) {
	for k, e := range s.cache {
		if now.Sub(e.at) > s.ttl {
			delete(s.cache, k)
		}
	}
}

func (s *Service) sweep() {
	s.mu.Lock()
	s.sweepLocked(time.Now())
	s.mu.Unlock()
}

// Len returns the number of cached entries, failures included.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Sweep drops expired entries every interval until the returned function
// is called.
func (s *Service) Sweep(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

// Forget drops cached entries, forcing the next Lookup to refetch.
func (s *Service) Forget() {
	s.mu.Lock()
	s.cache = make(map[string]entry)
	s.mu.Unlock()
}
