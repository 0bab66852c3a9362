package hits

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionpub/notion"
)

// Handler serves the counter badge.
// Views are rate-limited to 60 per IP per minute.
type Handler struct {
	store   *Store
	salt    string
	loc     *time.Location
	limiter *rateLimiter
	now     func() time.Time
}

// NewHandler loads or creates the hashing salt. Days are counted in loc.
func NewHandler(store *Store, loc *time.Location) (*Handler, error) {
	salt, err := loadSalt(store)
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:   store,
		salt:    salt,
		loc:     loc,
		limiter: newRateLimiter(60, time.Minute),
		now:     time.Now,
	}, nil
}

// Record counts a view of pageID unless it comes from a bot or exceeds the
// rate limit. It reports whether the view was counted.
func (h *Handler) Record(ctx context.Context, pageID, ip, userAgent string) (bool, error) {
	if IsBot(userAgent) || !h.limiter.allow(ip) {
		return false, nil
	}
	day := Day(h.now(), h.loc)
	if err := h.store.Record(ctx, pageID, day, VisitorHash(h.salt, ip, userAgent, day)); err != nil {
		return false, fmt.Errorf("record hit: %w", err)
	}
	return true, nil
}

// Counts returns today's and all-time visitors of pageID.
func (h *Handler) Counts(ctx context.Context, pageID string) (Counts, error) {
	return h.store.Counts(ctx, pageID, Day(h.now(), h.loc))
}

// Badge records a view and responds with the counter SVG.
func (h *Handler) Badge(c echo.Context) error {
	id, err := notion.NormalizeID(c.Param("id"))
	if err != nil {
		return echo.ErrNotFound
	}
	ctx := c.Request().Context()
	if c.Request().Header.Get("DNT") != "1" {
		if _, err := h.Record(ctx, id, c.RealIP(), c.Request().UserAgent()); err != nil {
			c.Logger().Errorf("hits: %v", err)
		}
	}
	counts, err := h.Counts(ctx, id)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	return c.Blob(http.StatusOK, "image/svg+xml; charset=utf-8", []byte(Badge("hits", strconv.Itoa(counts.Today)+" / "+strconv.Itoa(counts.Total))))
}

// Sweep periodically drops idle limiter entries. Returns a stop function.
func (h *Handler) Sweep(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				h.limiter.sweep()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

// RegisterRoutes registers the badge route with the Echo router.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/hits/:id/badge.svg", h.Badge)
}
