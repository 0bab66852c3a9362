package views

import (
	"fmt"
	"html"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/eringen/notionpub/notion"
)

const (
	// SecureStaticURL is the S3 prefix of legacy signed Notion uploads.
	SecureStaticURL = "https://s3.us-west-2.amazonaws.com/secure.notion-static.com"
	// SecureStaticProxy is the local prefix proxied to SecureStaticURL.
	SecureStaticProxy = "/secure-notion-static"

	// TitleSlugMaxLength bounds the title part of page links.
	TitleSlugMaxLength = 50
)

// URLRewriter turns links to the Notion workspace into links on this site.
// Rewriting only happens when the site has a custom domain.
type URLRewriter struct {
	customDomain string
	patterns     []*regexp.Regexp
}

// NewURLRewriter compiles the notion.so and notion.site prefix patterns. Empty
// patterns use defaults matching any workspace.
func NewURLRewriter(customDomain, notionSoPattern, notionSitePattern string) (*URLRewriter, error) {
	if notionSoPattern == "" {
		notionSoPattern = `^https?://(www\.)?notion\.so/([\w-]+/)?`
	}
	if notionSitePattern == "" {
		notionSitePattern = `^https?://[\w-]+\.notion\.site/`
	}
	r := &URLRewriter{customDomain: customDomain}
	for _, p := range []string{notionSoPattern, notionSitePattern} {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile link pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// Rewrite replaces a matching workspace prefix with "/". Other URLs are
// returned unchanged.
func (r *URLRewriter) Rewrite(u string) string {
	if r == nil || r.customDomain == "" {
		return u
	}
	for _, re := range r.patterns {
		if loc := re.FindStringIndex(u); loc != nil {
			return "/" + u[loc[1]:]
		}
	}
	return u
}

// RewriteNotionURL applies the site's link rewriting.
func RewriteNotionURL(site SiteConfig, u string) string {
	return site.Links.Rewrite(u)
}

// NotionImageURL converts a signed secure.notion-static.com S3 URL into the
// notion.so image endpoint, which does not expire. Other URLs are returned
// unchanged.
func NotionImageURL(s3URL, blockID, table string) string {
	i := strings.Index(s3URL, "secure.notion-static.com/")
	if i < 0 {
		return s3URL
	}
	if table == "" {
		table = "block"
	}
	object := s3URL[i+len("secure.notion-static.com/"):]
	if q := strings.IndexByte(object, '?'); q >= 0 {
		object = object[:q]
	}
	return "https://www.notion.so/image/" +
		encodeURIComponent(SecureStaticURL+"/"+object) +
		"?table=" + url.QueryEscape(table) + "&id=" + url.QueryEscape(blockID)
}

// ProxyFileURL routes legacy signed uploads through the local proxy. It
// reports false when u is not such an upload.
func ProxyFileURL(u string) (string, bool) {
	if !strings.Contains(u, SecureStaticURL) {
		return u, false
	}
	return strings.Replace(u, SecureStaticURL, SecureStaticProxy, 1), true
}

// ImageProxyURL routes an image through the resizing proxy.
func ImageProxyURL(src string, width int) string {
	if src == "" {
		return ""
	}
	return "/image?url=" + url.QueryEscape(src) + "&w=" + strconv.Itoa(SnapImageWidth(width))
}

// ImageWidths are the rendition widths the image proxy produces.
var ImageWidths = []int{128, 200, 600, 1200, 1600}

// SnapImageWidth rounds w up to the nearest rendition width.
func SnapImageWidth(w int) int {
	for _, iw := range ImageWidths {
		if w <= iw {
			return iw
		}
	}
	return ImageWidths[len(ImageWidths)-1]
}

// SecureStaticTarget maps rest, the path below SecureStaticProxy, to the
// upload URL it stands for. Paths with dot segments, empty segments or bad
// escapes are refused so the target stays inside the upload bucket.
func SecureStaticTarget(rest string) (string, bool) {
	p, err := url.PathUnescape(rest)
	if err != nil || p == "" || path.Clean("/"+p) != "/"+p {
		return "", false
	}
	u, err := url.Parse(SecureStaticURL)
	if err != nil {
		return "", false
	}
	u.Path += "/" + p
	return u.String(), true
}

// inSecureStatic reports whether u names an object below SecureStaticURL.
func inSecureStatic(u *url.URL) bool {
	prefix := strings.TrimPrefix(SecureStaticURL, "https://s3.us-west-2.amazonaws.com")
	return path.Clean(u.Path) == u.Path && strings.HasPrefix(u.Path, prefix+"/")
}

// SafeURL returns raw when it is relative or uses a safe scheme, or "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return val
	default:
		return ""
	}
}

// PageHref is the canonical link of a page: its title, cut to
// TitleSlugMaxLength runes, and its compact id.
func PageHref(title, id string) string {
	if title == "" {
		return "/" + notion.CompactID(id)
	}
	return "/" + encodeURIComponent(TitleSlug(title)) + "-" + notion.CompactID(id)
}

// ArticleHref links a database row. Rows of the base database use their slug
// property; others use the compact id followed by the slug.
func ArticleHref(site SiteConfig, row *notion.Page) string {
	parent := notion.CompactID(row.Parent.DatabaseID)
	slug := row.Slug()
	if parent != "" && parent == notion.CompactID(site.BaseBlock) {
		return "/" + encodeURIComponent(slug)
	}
	if slug == "" {
		slug = "Untitled"
	}
	return "/" + encodeURIComponent(notion.CompactID(row.ID)) + "/" + encodeURIComponent(slug)
}

var youtubeID = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|shorts/)|youtu\.be/)([\w-]{11})`)

// YouTubeEmbedURL returns the embeddable player URL for a YouTube link.
func YouTubeEmbedURL(u string) (string, bool) {
	m := youtubeID.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	return "https://www.youtube.com/embed/" + m[1], true
}

var secureStaticFilename = regexp.MustCompile(`(notion-static\.com/[-0-9a-z]+/)(.+)(\?)`)

// FileName extracts a download name from a hosted file, falling back to the
// API provided name and finally "File".
func FileName(f *notion.FileObject) string {
	if f == nil {
		return "File"
	}
	if f.Type == "file" && f.File != nil {
		if m := secureStaticFilename.FindStringSubmatch(f.File.URL); m != nil {
			if name, err := url.PathUnescape(m[2]); err == nil {
				return name
			}
			return m[2]
		}
	}
	if f.Name != "" {
		return f.Name
	}
	return "File"
}

// encodeURIComponent escapes s for use inside a path segment or query value,
// encoding spaces as %20.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
