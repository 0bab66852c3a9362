package notionpub

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/notionpub/linkpreview"
	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/views"
)

// apiError answers API requests with a JSON body instead of an HTML page.
func apiError(c echo.Context, err error) error {
	if errors.Is(err, ErrNotFound) || notion.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	c.Logger().Errorf("api %s: %v", c.Request().URL.Path, err)
	return c.JSON(http.StatusBadGateway, map[string]string{"error": "upstream request failed"})
}

func apiID(c echo.Context) (string, error) {
	id, err := notion.NormalizeID(c.Param("id"))
	if err != nil {
		return "", ErrNotFound
	}
	return id, nil
}

func (a *App) handleAPIPage(c echo.Context) error {
	id, err := apiID(c)
	if err != nil {
		return apiError(c, err)
	}
	obj, err := a.Content.Object(c.Request().Context(), id)
	if err != nil {
		return apiError(c, err)
	}
	if obj.Page == nil {
		return apiError(c, ErrNotFound)
	}
	return c.JSON(http.StatusOK, obj.Page)
}

func (a *App) handleAPIDatabase(c echo.Context) error {
	id, err := apiID(c)
	if err != nil {
		return apiError(c, err)
	}
	db, err := a.Content.Database(c.Request().Context(), id)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, db)
}

// handleAPIBlocks returns the whole block tree of a page: its blocks, the
// children of every nested block, and the rows of inline databases.
func (a *App) handleAPIBlocks(c echo.Context) error {
	id, err := apiID(c)
	if err != nil {
		return apiError(c, err)
	}
	tree, err := a.Content.Tree(c.Request().Context(), id)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, tree)
}

func (a *App) handleLinkPreview(c echo.Context) error {
	u := c.QueryParam("url")
	if u == "" || views.SafeURL(u) != u {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url must be an absolute http(s) url"})
	}
	p, err := a.Previews.Fetch(c.Request().Context(), u)
	if errors.Is(err, linkpreview.ErrBlockedAddress) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "url host is not allowed"})
	}
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.JSON(http.StatusOK, p)
}
