package notionpub

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/views"
)

func (a *App) handleHome(c echo.Context) error {
	return a.renderListing(c, "", "/", listFilter(c))
}

func (a *App) handleCategory(c echo.Context) error {
	category := pathParam(c, "category")
	f := listFilter(c)
	f.Category = category
	return a.renderListing(c, category, "/category/"+url.PathEscape(category)+"/", f)
}

func (a *App) handleTag(c echo.Context) error {
	tag := pathParam(c, "tag")
	f := listFilter(c)
	f.Tag = tag
	return a.renderListing(c, "#"+tag, "/tag/"+url.PathEscape(tag)+"/", f)
}

func (a *App) renderListing(c echo.Context, title, path string, f views.ListFilter) error {
	db, rows, err := a.Content.BaseListing(c.Request().Context())
	if err != nil {
		return err
	}
	site := a.Site()
	listing := views.DatabaseViewProps{Database: db, Rows: rows, Filter: f, Path: path}
	return Render(c, a.Views.Home(site, views.SiteMeta(site, title, path), listing, a.renderOptions(c)))
}

func (a *App) handlePage(c echo.Context) error {
	slug := c.Param("slug")
	return a.renderObject(c, slug, slug)
}

// handleDatabaseRow serves rows of databases other than the base one, linked
// as /<id>/<slug>.
func (a *App) handleDatabaseRow(c echo.Context) error {
	id := c.Param("id")
	if _, ok := IDFromSlug(id); !ok {
		return echo.ErrNotFound
	}
	return a.renderObject(c, id, id+"/"+c.Param("slug"))
}

// renderObject renders the page or database slug resolves to. Both arguments
// are path-escaped.
func (a *App) renderObject(c echo.Context, slug, canonical string) error {
	ctx := c.Request().Context()
	id, err := a.Content.ResolveSlug(ctx, slug)
	if err != nil {
		return err
	}
	obj, err := a.Content.Object(ctx, id)
	if err != nil {
		return err
	}

	props := views.PageProps{Object: obj}
	var blocks []notion.Block
	switch {
	case obj.Page != nil:
		if obj.Page.Archived {
			return echo.ErrNotFound
		}
		tree, err := a.Content.Tree(ctx, id)
		if err != nil {
			return err
		}
		props.Tree = tree
		blocks = tree.Blocks.Results
		if by := obj.Page.CreatedBy; by != nil && by.ID != "" {
			// Integrations without user access get 403 here; the header
			// then shows no author.
			if author, err := a.Content.Author(ctx, by.ID); err == nil {
				props.Author = author
			} else {
				c.Logger().Debugf("author %s: %v", by.ID, err)
			}
		}
	case obj.Database != nil:
		rows, err := a.Content.Query(ctx, id)
		if err != nil {
			return err
		}
		props.Listing = views.DatabaseViewProps{
			Database: obj.Database,
			Rows:     rows,
			Filter:   listFilter(c),
			Path:     c.Request().URL.Path,
		}
	default:
		return echo.ErrNotFound
	}
	if a.Hits != nil {
		props.HitsBadge = "/hits/" + notion.CompactID(obj.ID()) + "/badge.svg"
	}

	site := a.Site()
	meta := views.NewPageMeta(site, obj, blocks, canonical)
	return Render(c, a.Views.Page(site, meta, props, a.renderOptions(c)))
}

func (a *App) handleSearch(c echo.Context) error {
	q := c.QueryParam("q")
	results, err := a.Content.Search(c.Request().Context(), q)
	if err != nil {
		return err
	}
	site := a.Site()
	return Render(c, a.Views.Search(site, views.SiteMeta(site, "Search", "/s/"), q, results))
}

func (a *App) handleFavicon(c echo.Context) error {
	if p := filepath.Join(a.staticDir, "favicon.svg"); fileExists(p) {
		return c.File(p)
	}
	return a.serveEmbedded(c, "favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	if p := filepath.Join(a.staticDir, "robots.txt"); fileExists(p) {
		return c.File(p)
	}
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: " + a.Site().URL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, ErrNotFound) {
		err = echo.ErrNotFound
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.Site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func listFilter(c echo.Context) views.ListFilter {
	return views.ListFilter{
		Category: c.QueryParam("category"),
		Tag:      c.QueryParam("tag"),
		Query:    c.QueryParam("q"),
	}
}

// pathParam returns an unescaped route parameter.
func pathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
