package notionpub

import (
	"encoding/xml"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionpub/notion"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) handleSitemap(c echo.Context) error {
	_, rows, err := a.Content.BaseListing(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, rows)
}

func (a *App) renderSitemap(c echo.Context, rows []notion.Page) error {
	site := a.Site()
	urls := []sitemapURL{
		{Loc: site.URL + "/"},
	}
	for _, item := range site.HeaderNav {
		urls = append(urls, sitemapURL{Loc: site.URL + "/" + url.PathEscape(item.Slug)})
	}
	for i := range rows {
		urls = append(urls, sitemapURL{
			Loc:     articleURL(site, &rows[i]),
			LastMod: rows[i].LastEditedTime.UTC().Format("2006-01-02"),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
