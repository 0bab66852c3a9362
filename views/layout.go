package views

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/notionpub/notion"
)

// Layout wraps body in the HTML shell: head metadata, stylesheet and the
// header navigation.
func Layout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		writeHead(buf, site, meta)
		writeNav(buf, site)
		buf.WriteString(`<main class="flex-auto">`)
		if body != nil {
			if err := body.Render(ctx, buf); err != nil {
				return err
			}
		}
		buf.WriteString(`</main><footer class="py-6 text-center text-sm text-zinc-500">© `)
		buf.WriteString(templ.EscapeString(site.Name))
		buf.WriteString(`</footer></body></html>`)
		return nil
	})
}

func writeHead(buf *bytes.Buffer, site SiteConfig, meta PageMeta) {
	title := meta.Title
	if title == "" {
		title = site.Name
	} else if site.Name != "" && title != site.Name {
		title += " | " + site.Name
	}

	buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
	buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buf.WriteString(`<title>`)
	buf.WriteString(templ.EscapeString(title))
	buf.WriteString(`</title>`)
	writeMeta(buf, "name", "description", meta.Description)
	writeMeta(buf, "property", "og:title", meta.Title)
	writeMeta(buf, "property", "og:description", meta.Description)
	writeMeta(buf, "property", "og:type", first(meta.OGType, "website"))
	writeMeta(buf, "property", "og:url", meta.URL)
	writeMeta(buf, "property", "og:site_name", site.Name)
	writeMeta(buf, "property", "og:image", meta.Image)
	if meta.Image != "" {
		writeMeta(buf, "name", "twitter:card", "summary_large_image")
	}
	if meta.URL != "" {
		buf.WriteString(`<link rel="canonical" href="`)
		buf.WriteString(templ.EscapeString(meta.URL))
		buf.WriteString(`">`)
	}
	buf.WriteString(`<link rel="icon" href="`)
	buf.WriteString(templ.EscapeString(first(meta.Favicon, "/favicon.svg")))
	buf.WriteString(`">`)
	buf.WriteString(`<link rel="alternate" type="application/rss+xml" title="`)
	buf.WriteString(templ.EscapeString(site.Name))
	buf.WriteString(`" href="/feed.xml">`)
	buf.WriteString(`<link rel="stylesheet" href="/public/notion.css">`)
	buf.WriteString(`<script src="/public/notion.js" defer></script>`)
	if meta.JSONLD != "" {
		buf.WriteString(`<script type="application/ld+json">`)
		buf.WriteString(meta.JSONLD)
		buf.WriteString(`</script>`)
	}
	buf.WriteString(`</head><body class="min-h-screen flex flex-col">`)
}

func writeMeta(buf *bytes.Buffer, attr, key, content string) {
	if content == "" {
		return
	}
	buf.WriteString(`<meta `)
	buf.WriteString(attr)
	buf.WriteString(`="`)
	buf.WriteString(key)
	buf.WriteString(`" content="`)
	buf.WriteString(templ.EscapeString(content))
	buf.WriteString(`">`)
}

func writeNav(buf *bytes.Buffer, site SiteConfig) {
	buf.WriteString(`<header class="sticky top-0 z-10 backdrop-blur"><nav class="max-w-screen-lg mx-auto flex items-center gap-x-4 px-4 py-3">`)
	buf.WriteString(`<a href="/" class="font-bold text-lg">`)
	buf.WriteString(templ.EscapeString(site.Name))
	buf.WriteString(`</a><ul class="flex flex-auto gap-x-3 overflow-x-auto">`)
	for _, item := range site.HeaderNav {
		buf.WriteString(`<li><a href="/`)
		buf.WriteString(templ.EscapeString(url.PathEscape(item.Slug)))
		buf.WriteString(`">`)
		buf.WriteString(templ.EscapeString(item.Name))
		buf.WriteString(`</a></li>`)
	}
	buf.WriteString(`</ul><a href="/s/" aria-label="Search">⌕</a></nav></header>`)
}

// Home renders the listing of the base database.
func Home(site SiteConfig, meta PageMeta, listing DatabaseViewProps, opts RenderOptions) templ.Component {
	return Layout(site, meta, component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div class="max-w-screen-lg mx-auto px-4 py-8">`)
		writeDatabaseView(buf, site, listing, opts)
		buf.WriteString(`</div>`)
		return nil
	}))
}

// PageProps feeds Page.
type PageProps struct {
	Object notion.Object
	Author *notion.User
	// Tree is the block content of a page; nil for databases.
	Tree *notion.Tree
	// Listing is used when Object is a database.
	Listing DatabaseViewProps
	// HitsBadge is the URL of the view counter badge, empty when disabled.
	HitsBadge string
}

// Page renders a Notion page or database with its header.
func Page(site SiteConfig, meta PageMeta, p PageProps, opts RenderOptions) templ.Component {
	return Layout(site, meta, component(func(ctx context.Context, buf *bytes.Buffer) error {
		writePageHeader(buf, site, p.Object, p.Author, opts.Now)
		buf.WriteString(`<article class="max-w-screen-lg mx-auto px-4 py-6 sm:px-6 lg:px-10 notion-page">`)
		switch {
		case p.Object.Database != nil:
			writeDatabaseView(buf, site, p.Listing, opts)
		case p.Tree != nil:
			newRenderer(p.Tree, opts).list(buf, p.Tree.Blocks.Results, 0)
		}
		if p.HitsBadge != "" {
			buf.WriteString(`<div class="mt-10 flex justify-end"><img src="`)
			buf.WriteString(templ.EscapeString(p.HitsBadge))
			buf.WriteString(`" alt="hits" height="20"></div>`)
		}
		buf.WriteString(`</article>`)
		return nil
	}))
}

// Search renders the search form and its results.
func Search(site SiteConfig, meta PageMeta, query string, results []SearchResult) templ.Component {
	return Layout(site, meta, component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div class="max-w-screen-md mx-auto px-4 py-8"><form method="get" action="/s/" class="flex gap-x-2 mb-6">`)
		buf.WriteString(`<input class="input input-bordered w-full" type="search" name="q" placeholder="Search" value="`)
		buf.WriteString(templ.EscapeString(query))
		buf.WriteString(`" autofocus><button type="submit" class="btn">Search</button></form>`)
		if query != "" && len(results) == 0 {
			buf.WriteString(`<p class="text-zinc-500">No results.</p>`)
		}
		buf.WriteString(`<ul class="flex flex-col gap-y-2">`)
		for _, r := range results {
			buf.WriteString(`<li><a class="flex items-center gap-x-2 underline" href="`)
			buf.WriteString(templ.EscapeString(r.Href))
			buf.WriteString(`">`)
			if r.Icon != "" {
				buf.WriteString(`<span>`)
				buf.WriteString(templ.EscapeString(r.Icon))
				buf.WriteString(`</span>`)
			}
			buf.WriteString(templ.EscapeString(first(r.Title, "Untitled")))
			buf.WriteString(`<span class="text-xs text-zinc-500">`)
			buf.WriteString(templ.EscapeString(r.Kind))
			buf.WriteString(`</span></a></li>`)
		}
		buf.WriteString(`</ul></div>`)
		return nil
	}))
}

// NotFound is the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return errorPage(site, "404", "This page could not be found.")
}

// ServerError is the 500 page.
func ServerError(site SiteConfig) templ.Component {
	return errorPage(site, "500", "Something went wrong. Please try again later.")
}

func errorPage(site SiteConfig, code, message string) templ.Component {
	meta := PageMeta{Title: code, Description: message}
	return Layout(site, meta, component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div class="flex flex-col items-center justify-center py-24 gap-y-3"><h1 class="text-5xl font-bold">`)
		buf.WriteString(code)
		buf.WriteString(`</h1><p>`)
		buf.WriteString(templ.EscapeString(message))
		buf.WriteString(`</p><a class="underline" href="/">Home</a></div>`)
		return nil
	}))
}

// AdminLogin is the password form of the admin area.
func AdminLogin(site SiteConfig, showError bool, csrfToken string) templ.Component {
	return Layout(site, PageMeta{Title: "Admin"}, component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div class="max-w-sm mx-auto px-4 py-16"><form method="post" action="/admin/login/" class="flex flex-col gap-y-3">`)
		writeCSRF(buf, csrfToken)
		if showError {
			buf.WriteString(`<p class="text-notion-red">Invalid password.</p>`)
		}
		buf.WriteString(`<input class="input input-bordered" type="password" name="password" placeholder="Password" required autofocus>`)
		buf.WriteString(`<button type="submit" class="btn">Log in</button></form></div>`)
		return nil
	}))
}

// AdminDashboard lists the cached content and offers revalidation.
func AdminDashboard(site SiteConfig, entries []CacheEntry, message, csrfToken string) templ.Component {
	return Layout(site, PageMeta{Title: "Admin"}, component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div class="max-w-screen-lg mx-auto px-4 py-8">`)
		buf.WriteString(`<div class="flex items-center justify-between mb-6"><h1 class="text-2xl font-bold">Cache</h1><div class="flex gap-x-2">`)
		writeAdminButton(buf, "/admin/revalidate/", "Revalidate all", csrfToken, "")
		writeAdminButton(buf, "/admin/images/purge/", "Purge images", csrfToken, "")
		writeAdminButton(buf, "/admin/logout/", "Log out", csrfToken, "")
		buf.WriteString(`</div></div>`)
		if message != "" {
			buf.WriteString(`<p class="mb-4 p-2 rounded-md bg-notion-green">`)
			buf.WriteString(templ.EscapeString(message))
			buf.WriteString(`</p>`)
		}
		if len(entries) == 0 {
			buf.WriteString(`<p class="text-zinc-500">Nothing cached yet.</p></div>`)
			return nil
		}
		buf.WriteString(`<table class="table w-full"><thead><tr><th>Key</th><th>Fetched</th><th>Status</th><th></th></tr></thead><tbody>`)
		now := time.Now()
		for _, e := range entries {
			buf.WriteString(`<tr><td class="break-all font-mono text-xs">`)
			buf.WriteString(templ.EscapeString(e.Key))
			buf.WriteString(`</td><td title="`)
			buf.WriteString(templ.EscapeString(e.FetchedAt.Format(time.RFC3339)))
			buf.WriteString(`">`)
			buf.WriteString(templ.EscapeString(RelativeTime(e.FetchedAt, now)))
			buf.WriteString(`</td><td>`)
			if e.Stale {
				buf.WriteString(`stale`)
			} else {
				buf.WriteString(`fresh`)
			}
			buf.WriteString(`</td><td>`)
			writeAdminButton(buf, "/admin/revalidate/", "Revalidate", csrfToken, e.Key)
			buf.WriteString(`</td></tr>`)
		}
		buf.WriteString(`</tbody></table><p class="mt-2 text-sm text-zinc-500">`)
		buf.WriteString(strconv.Itoa(len(entries)))
		buf.WriteString(` entries</p></div>`)
		return nil
	}))
}

func writeCSRF(buf *bytes.Buffer, token string) {
	buf.WriteString(`<input type="hidden" name="_csrf" value="`)
	buf.WriteString(templ.EscapeString(token))
	buf.WriteString(`">`)
}

func writeAdminButton(buf *bytes.Buffer, action, label, csrfToken, key string) {
	buf.WriteString(`<form method="post" action="`)
	buf.WriteString(templ.EscapeString(action))
	buf.WriteString(`">`)
	writeCSRF(buf, csrfToken)
	if key != "" {
		buf.WriteString(`<input type="hidden" name="key" value="`)
		buf.WriteString(templ.EscapeString(key))
		buf.WriteString(`">`)
	}
	buf.WriteString(`<button type="submit" class="btn btn-sm">`)
	buf.WriteString(templ.EscapeString(label))
	buf.WriteString(`</button></form>`)
}
