package notionpub

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/views"
)

// SlugProperty is the rich text property of the base database holding the
// path of each article.
const SlugProperty = "slug"

var (
	dashedID  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	compactID = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
)

// Content reads pages and databases from Notion through the ContentCache.
type Content struct {
	client *notion.Client
	cache  *ContentCache
	base   string // dashed id of the base database
}

// NewContent returns a Content service. baseBlock is the base database id in
// either form.
func NewContent(client *notion.Client, cache *ContentCache, baseBlock string) (*Content, error) {
	base, err := notion.NormalizeID(baseBlock)
	if err != nil {
		return nil, fmt.Errorf("base block %q: %w", baseBlock, err)
	}
	return &Content{client: client, cache: cache, base: base}, nil
}

// BaseID returns the dashed id of the base database.
func (s *Content) BaseID() string { return s.base }

// IDFromSlug extracts a compact page id from a path segment: a dashed id, or
// any slug whose last 32 characters, ignoring dashes, are hex. It reports
// false for article slugs.
func IDFromSlug(slug string) (string, bool) {
	if dashedID.MatchString(slug) {
		return strings.ToLower(notion.CompactID(slug)), true
	}
	s := strings.ReplaceAll(slug, "-", "")
	if len(s) < 32 {
		return "", false
	}
	tail := s[len(s)-32:]
	if !compactID.MatchString(tail) {
		return "", false
	}
	return strings.ToLower(tail), true
}

// ResolveSlug maps a path segment to a page or database id. Slugs that do not
// end in an id are looked up in the base database's slug property.
func (s *Content) ResolveSlug(ctx context.Context, slug string) (string, error) {
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	if id, ok := IDFromSlug(slug); ok {
		return id, nil
	}
	return Get(ctx, s.cache, "slug:"+slug, func(ctx context.Context) (string, error) {
		res, err := s.client.QueryDatabase(ctx, s.base, notion.Query{
			Filter: notion.RichTextEquals(SlugProperty, slug),
		})
		if err != nil {
			return "", fmt.Errorf("resolve slug %q: %w", slug, err)
		}
		if len(res.Results) == 0 {
			return "", ErrNotFound
		}
		return notion.CompactID(res.Results[0].ID), nil
	})
}

// Object returns the page or database with the given id.
func (s *Content) Object(ctx context.Context, id string) (notion.Object, error) {
	return Get(ctx, s.cache, cacheKey("object", id), func(ctx context.Context) (notion.Object, error) {
		return s.client.Lookup(ctx, id)
	})
}

// Tree returns the block tree of a page.
func (s *Content) Tree(ctx context.Context, id string) (*notion.Tree, error) {
	return Get(ctx, s.cache, cacheKey("tree", id), func(ctx context.Context) (*notion.Tree, error) {
		return notion.FetchTree(ctx, s.client, id)
	})
}

// Database returns a database's schema.
func (s *Content) Database(ctx context.Context, id string) (*notion.Database, error) {
	return Get(ctx, s.cache, cacheKey("database", id), func(ctx context.Context) (*notion.Database, error) {
		return s.client.RetrieveDatabase(ctx, id)
	})
}

// Query returns the published rows of a database, newest first.
func (s *Content) Query(ctx context.Context, id string) ([]notion.Page, error) {
	return Get(ctx, s.cache, cacheKey("query", id), func(ctx context.Context) ([]notion.Page, error) {
		res, err := notion.QueryPublished(ctx, s.client, id)
		if err != nil {
			return nil, err
		}
		return res.Results, nil
	})
}

// Author returns the user who created a page.
func (s *Content) Author(ctx context.Context, userID string) (*notion.User, error) {
	return Get(ctx, s.cache, cacheKey("user", userID), func(ctx context.Context) (*notion.User, error) {
		return s.client.RetrieveUser(ctx, userID)
	})
}

// BaseListing returns the base database and its published rows.
func (s *Content) BaseListing(ctx context.Context) (*notion.Database, []notion.Page, error) {
	db, err := s.Database(ctx, s.base)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.Query(ctx, s.base)
	if err != nil {
		return nil, nil, err
	}
	return db, rows, nil
}

// StaticPaths lists the page slugs reachable from the header navigation:
// every titled row of each database a nav item names.
func (s *Content) StaticPaths(ctx context.Context, nav []views.NavItem) ([]string, error) {
	var paths []string
	for _, item := range nav {
		found, err := s.client.Search(ctx, item.Slug, "database")
		if err != nil {
			return paths, fmt.Errorf("search %q: %w", item.Slug, err)
		}
		for _, obj := range found {
			if obj.Database == nil {
				continue
			}
			rows, err := s.Query(ctx, obj.Database.ID)
			if err != nil {
				return paths, err
			}
			for i := range rows {
				title := views.TitleSlug(rows[i].Title())
				if title == "" {
					continue
				}
				paths = append(paths, title+"-"+notion.CompactID(rows[i].ID))
			}
		}
	}
	return paths, nil
}

const maxSearchQuery = 100

// Search finds pages and databases whose title matches query.
func (s *Content) Search(ctx context.Context, query string) ([]views.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if r := []rune(query); len(r) > maxSearchQuery {
		query = string(r[:maxSearchQuery])
	}
	// Queries are visitor input, so results skip the content cache and its
	// snapshots; the client's rate limit bounds the load on Notion.
	found, err := s.client.Search(ctx, query, "")
	if notion.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	results := make([]views.SearchResult, 0, len(found))
	for _, obj := range found {
		if obj.Page != nil && obj.Page.Archived {
			continue
		}
		r := views.SearchResult{
			Title: obj.Title(),
			Href:  views.PageHref(obj.Title(), obj.ID()),
			Kind:  obj.Kind,
		}
		if r.Title == "" {
			r.Title = "Untitled"
		}
		if ic := obj.Icon(); ic != nil && ic.Type == "emoji" {
			r.Icon = ic.Emoji
		}
		results = append(results, r)
	}
	return results, nil
}

// Block retrieves a block without caching, so file URLs are freshly signed.
func (s *Content) Block(ctx context.Context, id string) (*notion.Block, error) {
	b, err := s.client.RetrieveBlock(ctx, id)
	if notion.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return b, err
}

// Forget drops every cached value derived from id.
func (s *Content) Forget(id string) {
	for _, kind := range []string{"object", "tree", "database", "query"} {
		s.cache.Invalidate(cacheKey(kind, id))
	}
}

// cacheKey names a cached value. Ids are compacted so dashed and undashed
// forms share an entry.
func cacheKey(kind, id string) string {
	return kind + ":" + strings.ToLower(notion.CompactID(id))
}
