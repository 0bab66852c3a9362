package notionpub

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/views"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
}

func (a *App) handleFeed(c echo.Context) error {
	_, rows, err := a.Content.BaseListing(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, rows)
}

func (a *App) renderRSS(c echo.Context, rows []notion.Page) error {
	site := a.Site()
	items := make([]rssItem, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		link := articleURL(site, row)
		item := rssItem{
			Title:       row.Title(),
			Link:        link,
			Description: rowSummary(row),
			PubDate:     row.CreatedTime.Format(time.RFC1123Z),
			GUID:        link,
		}
		if item.Title == "" {
			item.Title = "Untitled"
		}
		if cat := row.Category(); cat != "" {
			item.Categories = append(item.Categories, cat)
		}
		for _, t := range row.Tags() {
			item.Categories = append(item.Categories, t.Name)
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       site.Name,
			Link:        site.URL + "/",
			Description: site.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}

// articleURL is the absolute link of a base database row. Rows without a
// slug fall back to their title link.
func articleURL(site views.SiteConfig, row *notion.Page) string {
	href := views.ArticleHref(site, row)
	if href == "/" {
		href = views.PageHref(row.Title(), row.ID)
	}
	return strings.TrimRight(site.URL, "/") + href
}

// rowSummary returns the "description" or "summary" text property of a row.
func rowSummary(row *notion.Page) string {
	for _, name := range []string{"description", "summary"} {
		if v := row.Prop(name); v != nil && v.Type == "rich_text" {
			return notion.PlainText(v.RichText)
		}
	}
	return ""
}
