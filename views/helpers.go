package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"

	"github.com/eringen/notionpub/notion"
)

// buildURL joins path segments onto a base URL.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// TitleSlug is the title part of a page link: NFC normalised so composed and
// decomposed Hangul or accents produce the same URL, cut to TitleSlugMaxLength.
func TitleSlug(title string) string {
	return truncate(norm.NFC.String(strings.TrimSpace(title)), TitleSlugMaxLength)
}

// HeadingHash is the anchor id of a heading block.
func HeadingHash(plainText, blockID string) string {
	id := blockID
	if len(id) > 8 {
		id = id[:8]
	}
	return truncate(plainText, 50) + "-" + id
}

// FormatDate renders t as yyyy-MM-dd in the site's zone.
func FormatDate(site SiteConfig, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(site.location()).Format("2006-01-02")
}

// RelativeTime renders t relative to now, e.g. "3 days ago".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Description builds a meta description from the plain text of the first ten
// blocks.
func Description(blocks []notion.Block) string {
	var parts []string
	for i := range blocks {
		if i == 10 {
			break
		}
		if text := notion.PlainText(blocks[i].RichText()); text != "" {
			parts = append(parts, text)
		}
	}
	d := strings.Join(parts, " ")
	d = strings.NewReplacer("\r", "", "\n", "").Replace(d)
	return truncate(d, 155)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a page.
func BlogPostingJsonLD(cfg SiteConfig, meta PageMeta, page *notion.Page) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    meta.Title,
		"description": meta.Description,
		"url":         meta.URL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   meta.URL,
		},
	}
	if page != nil {
		data["datePublished"] = page.CreatedTime.Format(time.RFC3339)
		data["dateModified"] = page.LastEditedTime.Format(time.RFC3339)
		var tags []string
		for _, t := range page.Tags() {
			tags = append(tags, t.Name)
		}
		if len(tags) > 0 {
			data["keywords"] = strings.Join(tags, ", ")
		}
	}
	if meta.Image != "" {
		data["image"] = meta.Image
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
