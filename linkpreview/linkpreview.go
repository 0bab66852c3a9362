// Package linkpreview fetches title, description and image metadata for
// bookmark blocks.
package linkpreview

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Preview is the metadata shown in a bookmark card.
type Preview struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	Image       string    `json:"image,omitempty"`
	ImageAlt    string    `json:"imageAlt,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// ErrNoMetadata is returned when a document has neither a title nor a
// description.
var ErrNoMetadata = errors.New("linkpreview: no metadata")

var textPolicy = bluemonday.StrictPolicy()

// Parse extracts preview metadata from an HTML document. Relative icon and
// image URLs are resolved against base.
func Parse(r io.Reader, base *url.URL) (*Preview, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		title, ogTitle, twTitle string
		desc, ogDesc            string
		icon, image, imageAlt   string
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title == "" && n.FirstChild != nil {
					title = n.FirstChild.Data
				}
			case atom.Meta:
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				content := attr(n, "content")
				switch key {
				case "og:title":
					ogTitle = first(ogTitle, content)
				case "twitter:title":
					twTitle = first(twTitle, content)
				case "og:description", "twitter:description":
					ogDesc = first(ogDesc, content)
				case "description":
					desc = first(desc, content)
				case "og:image", "twitter:image":
					image = first(image, content)
				case "og:image:alt", "twitter:image:alt":
					imageAlt = first(imageAlt, content)
				}
			case atom.Link:
				rel := strings.ToLower(attr(n, "rel"))
				if icon == "" && strings.Contains(rel, "icon") {
					icon = attr(n, "href")
				}
			case atom.Body:
				// metadata lives in head; skip the body
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p := &Preview{
		Title:       clean(first(ogTitle, twTitle, title)),
		Description: clean(first(ogDesc, desc)),
		Icon:        resolve(base, icon),
		Image:       resolve(base, image),
		ImageAlt:    clean(imageAlt),
	}
	if base != nil {
		p.URL = base.String()
	}
	if p.Title == "" && p.Description == "" {
		return nil, ErrNoMetadata
	}
	return p, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// clean strips markup from third-party text. The views escape it again on
// output, so entities are decoded here.
func clean(s string) string {
	s = html.UnescapeString(textPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
