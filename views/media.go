package views

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/notionpub/linkpreview"
	"github.com/eringen/notionpub/notion"
)

const contentImageWidth = 1200

// ImageProxyHosts are the remote hosts the image proxy fetches from. The
// shared S3 endpoint is only trusted below SecureStaticURL.
var ImageProxyHosts = []string{
	"www.notion.so",
	"notion.so",
	"s3.us-west-2.amazonaws.com",
	"prod-files-secure.s3.us-west-2.amazonaws.com",
	"images.unsplash.com",
}

// ProxyableImage reports whether u is served by an allowed image host.
func ProxyableImage(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme != "https" || parsed.User != nil || parsed.Port() != "" {
		return false
	}
	host := parsed.Hostname()
	for _, h := range ImageProxyHosts {
		if host != h {
			continue
		}
		if h == "s3.us-west-2.amazonaws.com" {
			return inSecureStatic(parsed)
		}
		return true
	}
	return false
}

// ImageSrc picks the URL an <img> should load for a Notion file. Legacy
// uploads go through the notion.so image endpoint, expired signed URLs
// through the renewal route, and allowed hosts through the resizing proxy.
func ImageSrc(f *notion.FileObject, blockID, table string, width int, now time.Time) string {
	u := f.URL()
	if u == "" {
		return ""
	}
	if f.Type == "file" {
		if converted := NotionImageURL(u, blockID, table); converted != u {
			return ImageProxyURL(converted, width)
		}
		if notion.IsExpired(f, now) && table == "block" {
			return "/file/" + url.PathEscape(blockID)
		}
	}
	if ProxyableImage(u) {
		return ImageProxyURL(u, width)
	}
	return u
}

func writeImg(buf *bytes.Buffer, src, alt, class string) {
	src = SafeURL(src)
	if src == "" {
		return
	}
	buf.WriteString(`<img src="`)
	buf.WriteString(templ.EscapeString(src))
	buf.WriteString(`" alt="`)
	buf.WriteString(templ.EscapeString(alt))
	buf.WriteString(`" loading="lazy" decoding="async"`)
	if class != "" {
		buf.WriteString(` class="`)
		buf.WriteString(templ.EscapeString(class))
		buf.WriteString(`"`)
	}
	buf.WriteString(">")
}

// icon renders an emoji or an image icon.
func (r *renderer) icon(buf *bytes.Buffer, icon *notion.Icon, blockID, alt string) {
	if icon == nil {
		return
	}
	switch icon.Type {
	case "emoji":
		buf.WriteString(templ.EscapeString(icon.Emoji))
	case "file", "external":
		f := &notion.FileObject{Type: icon.Type, File: icon.File, External: icon.External}
		writeImg(buf, ImageSrc(f, blockID, "block", 128, r.opts.Now), alt, "w-[1.2em] h-[1.2em]")
	}
}

func (r *renderer) image(buf *bytes.Buffer, b *notion.Block) {
	buf.WriteString(`<div class="flex justify-center"><div>`)
	alt := notion.PlainText(b.Image.Caption)
	if alt == "" {
		alt = "image"
	}
	writeImg(buf, ImageSrc(b.Image, b.ID, "block", contentImageWidth, r.opts.Now), alt, "notion-image")
	r.caption(buf, b.ID, b.Image.Caption)
	buf.WriteString(`</div></div>`)
}

func (r *renderer) video(buf *bytes.Buffer, b *notion.Block) {
	v := b.Video
	buf.WriteString(`<div class="w-full">`)
	switch {
	case v.Type == "file":
		buf.WriteString(`<video class="w-full" controls preload="metadata" src="/file/`)
		buf.WriteString(templ.EscapeString(url.PathEscape(b.ID)))
		buf.WriteString(`"></video>`)
	case v.External != nil:
		if embed, ok := YouTubeEmbedURL(v.External.URL); ok {
			r.embed(buf, embed)
		} else if src := SafeURL(v.External.URL); src != "" {
			buf.WriteString(`<video class="w-full" controls preload="metadata" src="`)
			buf.WriteString(templ.EscapeString(src))
			buf.WriteString(`"></video>`)
		}
	}
	buf.WriteString(`</div>`)
	r.caption(buf, b.ID, v.Caption)
}

func (r *renderer) file(buf *bytes.Buffer, b *notion.Block) {
	f := b.Media()
	name := FileName(f)
	href := f.URL()
	if proxied, ok := ProxyFileURL(href); ok {
		href = proxied
	} else if f.Type == "file" {
		href = "/file/" + url.PathEscape(b.ID)
	}
	href = SafeURL(href)

	buf.WriteString(`<div><a`)
	if href != "" {
		buf.WriteString(` href="`)
		buf.WriteString(templ.EscapeString(href))
		buf.WriteString(`"`)
	}
	buf.WriteString(` rel="noreferrer" target="_blank"`)
	if f.Type == "file" && name != "File" {
		buf.WriteString(` download="`)
		buf.WriteString(templ.EscapeString(name))
		buf.WriteString(`"`)
	}
	buf.WriteString(` class="inline-flex items-center gap-x-0.5 px-1.5 my-1.5 rounded-md bg-base-content/10 hover:bg-base-content/20">🔗&nbsp;`)
	buf.WriteString(templ.EscapeString(name))
	buf.WriteString(`</a></div>`)
	r.caption(buf, b.ID, f.Caption)
}

// linkPreview renders a bookmark card, or a plain link until the preview has
// been fetched.
func (r *renderer) linkPreview(buf *bytes.Buffer, rawURL string) {
	var p *linkpreview.Preview
	if r.opts.Previews != nil {
		p, _ = r.opts.Previews.Lookup(rawURL)
	}

	if p == nil {
		buf.WriteString(`<a class="underline"`)
		writeHref(buf, r.site(), rawURL)
		buf.WriteString(` rel="noreferrer" target="_blank">`)
		writeText(buf, TextStyle{}, rawURL)
		buf.WriteString(`</a>`)
		return
	}

	buf.WriteString(`<a`)
	writeHref(buf, r.site(), rawURL)
	buf.WriteString(` rel="noreferrer" target="_blank">`)
	buf.WriteString(`<div class="flex-col-reverse rounded-sm shadow-xl card card-side bg-base-100 sm:flex-row">`)
	buf.WriteString(`<div class="px-4 py-3 card-body"><h2 class="text-lg card-title line-clamp-2">`)
	writeText(buf, TextStyle{}, p.Title)
	buf.WriteString(`</h2><p class="flex-grow-0 text-sm line-clamp-3 text-notion-gray">`)
	writeText(buf, TextStyle{}, p.Description)
	buf.WriteString(`</p><div class="mt-auto text-sm"><div class="flex-grow-0 break-all flex-align-items-center gap-x-1 text-ellipsis">`)
	writeImg(buf, p.Icon, "", "w-[1.2em] h-[1.2em]")
	buf.WriteString(`<p>`)
	buf.WriteString(templ.EscapeString(rawURL))
	buf.WriteString(`</p></div></div></div>`)
	if p.Image != "" {
		buf.WriteString(`<figure class="image-wrapper shrink-0 max-w-none sm:min-h-full sm:max-w-[200px] md:max-w-[300px] lg:max-w-[350px]">`)
		writeImg(buf, p.Image, p.ImageAlt, "w-full sm:h-full max-h-[175px]")
		buf.WriteString(`</figure>`)
	}
	buf.WriteString(`</div></a>`)
}

func (r *renderer) embed(buf *bytes.Buffer, rawURL string) {
	src := SafeURL(rawURL)
	if src == "" || !strings.HasPrefix(src, "http") {
		return
	}
	buf.WriteString(`<iframe class="w-full aspect-video" src="`)
	buf.WriteString(templ.EscapeString(src))
	buf.WriteString(`" loading="lazy" referrerpolicy="no-referrer" sandbox="allow-scripts allow-same-origin allow-popups allow-presentation" allowfullscreen></iframe>`)
}
