package notion

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds the in-flight requests of a single tree fetch. The
// client limiter still applies on top.
const fetchConcurrency = 4

// PublishedProperty is the checkbox that hides unpublished database rows.
const PublishedProperty = "isPublished"

// ContentSource is the subset of Client used to assemble trees.
type ContentSource interface {
	ListBlockChildren(ctx context.Context, id string) (BlockList, error)
	RetrieveDatabase(ctx context.Context, id string) (*Database, error)
	QueryDatabase(ctx context.Context, id string, q Query) (DatabaseQuery, error)
}

// FetchTree loads the blocks of rootID with all nested children and the rows of
// every inline database. It walks the tree one level at a time so the result
// does not depend on request ordering.
func FetchTree(ctx context.Context, src ContentSource, rootID string) (*Tree, error) {
	root, err := src.ListBlockChildren(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("fetch tree %s: %w", rootID, err)
	}
	t := &Tree{
		Blocks:    root,
		Children:  map[string]BlockList{},
		Databases: map[string]DatabaseQuery{},
	}

	var mu sync.Mutex
	level := root.Results
	for len(level) > 0 {
		var parents []string
		for _, b := range level {
			if b.Type != TypeChildDatabase && b.descends() {
				parents = append(parents, b.ID)
			}
		}
		next := make([][]Block, len(parents))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fetchConcurrency)
		for _, b := range level {
			if b.Type != TypeChildDatabase {
				continue
			}
			id := b.ID
			g.Go(func() error {
				rows, err := QueryPublished(gctx, src, id)
				if err != nil {
					if IsNotFound(err) {
						return nil
					}
					return err
				}
				mu.Lock()
				t.Databases[id] = rows
				mu.Unlock()
				return nil
			})
		}
		for i, id := range parents {
			g.Go(func() error {
				children, err := src.ListBlockChildren(gctx, id)
				if err != nil {
					return err
				}
				mu.Lock()
				t.Children[id] = children
				mu.Unlock()
				next[i] = children.Results
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("fetch tree %s: %w", rootID, err)
		}

		level = nil
		for _, blocks := range next {
			level = append(level, blocks...)
		}
	}
	return t, nil
}

// QueryPublished lists the rows of a database newest first, keeping only
// published rows when the database defines the PublishedProperty checkbox.
func QueryPublished(ctx context.Context, src ContentSource, id string) (DatabaseQuery, error) {
	db, err := src.RetrieveDatabase(ctx, id)
	if err != nil {
		return DatabaseQuery{}, err
	}
	q := Query{Sorts: []Sort{{Timestamp: "created_time", Direction: "descending"}}}
	if db.HasProperty(PublishedProperty, "checkbox") {
		q.Filter = CheckboxEquals(PublishedProperty, true)
	}
	return src.QueryDatabase(ctx, id, q)
}
