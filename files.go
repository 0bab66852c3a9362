package notionpub

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/views"
)

// forwardedHeaders are copied from proxied file responses.
var forwardedHeaders = []string{
	echo.HeaderContentLength,
	echo.HeaderContentDisposition,
	echo.HeaderLastModified,
	"ETag",
}

// handleFile redirects to a freshly signed URL of a hosted file. Rendered
// pages link here once the signed URL in the cached tree has expired.
func (a *App) handleFile(c echo.Context) error {
	id, err := notion.NormalizeID(c.Param("blockId"))
	if err != nil {
		return echo.ErrNotFound
	}
	b, err := a.Content.Block(c.Request().Context(), id)
	if err != nil {
		return err
	}
	f := b.Media()
	if f == nil || f.URL() == "" {
		return echo.ErrNotFound
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Redirect(http.StatusFound, f.URL())
}

// handleSecureStatic proxies legacy secure.notion-static.com uploads, whose
// S3 bucket refuses cross-origin embedding.
func (a *App) handleSecureStatic(c echo.Context) error {
	target, ok := views.SecureStaticTarget(c.Param("*"))
	if !ok {
		return echo.ErrNotFound
	}
	if q := c.Request().URL.RawQuery; q != "" {
		target += "?" + q
	}
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, target, nil)
	if err != nil {
		return echo.ErrNotFound
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetch file").SetInternal(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		return echo.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return echo.NewHTTPError(http.StatusBadGateway, "fetch file: "+resp.Status)
	}

	h := c.Response().Header()
	for _, k := range forwardedHeaders {
		if v := resp.Header.Get(k); v != "" {
			h.Set(k, v)
		}
	}
	h.Set("Cache-Control", "public, max-age=1800")
	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, resp.Body)
}
