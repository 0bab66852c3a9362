package views

import (
	"time"

	"github.com/eringen/notionpub/linkpreview"
)

// SiteConfig holds site-wide settings every view needs. Handlers pass it down
// so nothing is hardcoded.
type SiteConfig struct {
	Name        string // BLOG_NAME
	URL         string // SITE_URL, origin without trailing slash
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
	BaseBlock   string // compact id of the base database

	Location  *time.Location // TZ, dates are shown in this zone
	HeaderNav []NavItem
	Links     *URLRewriter // rewrites notion.so links onto this site, may be nil
}

func (c SiteConfig) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// NavItem is one link in the header navigation.
type NavItem struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
	Favicon     string
	JSONLD      string
}

// LinkPreviewer returns cached metadata for bookmark URLs. A miss renders a
// plain link.
type LinkPreviewer interface {
	Lookup(url string) (*linkpreview.Preview, bool)
}

// SortKey orders the cards of an inline database.
type SortKey string

const (
	SortCreated SortKey = "created_time"
	SortEdited  SortKey = "last_edited_time"
	SortTitle   SortKey = "title"
)

// SortOrder is the ordering requested through ?sort= and ?order=.
type SortOrder struct {
	Key SortKey
	Asc bool
}

// DefaultSort is newest first.
var DefaultSort = SortOrder{Key: SortCreated}

// ParseSort reads sort and order query values, falling back to DefaultSort.
func ParseSort(key, order string) SortOrder {
	switch SortKey(key) {
	case SortCreated, SortEdited:
		return SortOrder{Key: SortKey(key), Asc: order == "asc"}
	case SortTitle:
		return SortOrder{Key: SortTitle, Asc: order != "desc"}
	}
	return DefaultSort
}

// RenderOptions carries what the block renderer needs beyond the tree.
type RenderOptions struct {
	Site     SiteConfig
	Previews LinkPreviewer
	Sort     SortOrder
	Now      time.Time
}

// ListFilter narrows a database listing.
type ListFilter struct {
	Category string
	Tag      string
	Query    string
}

// Active reports whether any filter is set.
func (f ListFilter) Active() bool {
	return f.Category != "" || f.Tag != "" || f.Query != ""
}

// SearchResult is one hit on the search page.
type SearchResult struct {
	Title string
	Href  string
	Kind  string // "page" or "database"
	Icon  string
}

// CacheEntry describes one cached item on the admin dashboard.
type CacheEntry struct {
	Key       string
	FetchedAt time.Time
	Stale     bool
}
