package notionpub

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const warmTimeout = 10 * time.Minute

// Warm loads the base listing and every static path into the cache, so the
// first visitors of each page are served from memory. It returns how many
// pages were loaded; failures of single pages are logged and skipped.
func (a *App) Warm(ctx context.Context) (int, error) {
	if _, _, err := a.Content.BaseListing(ctx); err != nil {
		return 0, fmt.Errorf("warm base listing: %w", err)
	}
	paths, err := a.Content.StaticPaths(ctx, a.Site().HeaderNav)
	if err != nil {
		log.Printf("warm: static paths: %v", err)
	}
	n := 0
	for _, slug := range paths {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		if err := a.warmPage(ctx, slug); err != nil {
			log.Printf("warm: %s: %v", slug, err)
			continue
		}
		n++
	}
	return n, nil
}

func (a *App) warmPage(ctx context.Context, slug string) error {
	id, err := a.Content.ResolveSlug(ctx, slug)
	if err != nil {
		return err
	}
	obj, err := a.Content.Object(ctx, id)
	if err != nil {
		return err
	}
	if obj.Database != nil {
		_, err = a.Content.Query(ctx, id)
		return err
	}
	_, err = a.Content.Tree(ctx, id)
	return err
}

// StartWarmer runs Warm on a cron schedule such as "@every 30m". An empty
// schedule disables it. The returned function stops the scheduler.
func (a *App) StartWarmer(schedule string) (func(), error) {
	if schedule == "" {
		return func() {}, nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()
		start := time.Now()
		n, err := a.Warm(ctx)
		if err != nil {
			log.Printf("warm: %v", err)
			return
		}
		log.Printf("warm: loaded %d pages in %s", n, time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid WARM_SCHEDULE %q: %w", schedule, err)
	}
	c.Start()
	log.Printf("warm: scheduled %q", schedule)
	return func() { <-c.Stop().Done() }, nil
}
