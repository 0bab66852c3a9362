package views

import (
	"net/url"
	"strings"

	"github.com/eringen/notionpub/notion"
)

// NewPageMeta builds the head metadata of a rendered page or database.
func NewPageMeta(site SiteConfig, obj notion.Object, blocks []notion.Block, slug string) PageMeta {
	title := truncate(obj.Title(), 60)
	if title == "" {
		title = "Untitled"
	}
	meta := PageMeta{
		Title:       title,
		Description: Description(blocks),
		URL:         CanonicalURL(site, slug),
		OGType:      "article",
		Image:       coverImageURL(obj),
		Favicon:     Favicon(obj.Icon(), obj.ID()),
	}
	if meta.Description == "" {
		meta.Description = site.Description
	}
	meta.JSONLD = BlogPostingJsonLD(site, meta, obj.Page)
	return meta
}

// SiteMeta is the metadata of site-level pages such as the home listing.
func SiteMeta(site SiteConfig, title, path string) PageMeta {
	if title == "" {
		title = site.Name
	}
	return PageMeta{
		Title:       title,
		Description: site.Description,
		URL:         CanonicalURL(site, path),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(site),
	}
}

// CanonicalURL joins the site origin and a slug.
func CanonicalURL(site SiteConfig, slug string) string {
	return strings.TrimRight(site.URL, "/") + "/" + strings.TrimLeft(slug, "/")
}

func coverImageURL(obj notion.Object) string {
	cover := obj.Cover()
	if cover == nil {
		return ""
	}
	switch cover.Type {
	case "external":
		if cover.External != nil {
			return cover.External.URL
		}
	case "file":
		if cover.File != nil {
			return NotionImageURL(cover.File.URL, obj.ID(), "block")
		}
	}
	return ""
}

// Favicon returns the icon link of a page: the uploaded image, or the emoji
// drawn in an SVG data URL.
func Favicon(icon *notion.Icon, id string) string {
	if icon == nil {
		return ""
	}
	switch icon.Type {
	case "file":
		if icon.File != nil {
			return NotionImageURL(icon.File.URL, id, "block")
		}
	case "external":
		if icon.External != nil {
			return icon.External.URL
		}
	case "emoji":
		if icon.Emoji != "" {
			return "data:image/svg+xml," + url.PathEscape(
				`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><text y=".9em" font-size="90">`+
					icon.Emoji+`</text></svg>`)
		}
	}
	return ""
}
