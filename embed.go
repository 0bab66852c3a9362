package notionpub

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
)

// EmbeddedAssets contains static assets shipped with the framework:
// notion.css, notion.js and the default favicon.svg.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

func (a *App) handleEmbedded(c echo.Context) error {
	return a.serveEmbedded(c, path.Base(c.Request().URL.Path))
}

func (a *App) serveEmbedded(c echo.Context, name string) error {
	data, err := fs.ReadFile(EmbeddedAssets, "embedded/"+name)
	if err != nil {
		return echo.ErrNotFound
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, contentType, data)
}
