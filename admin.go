package notionpub

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.Site(), false, CsrfToken(c)))
	}
	return Render(c, a.Views.AdminDashboard(a.Site(), a.Cache.Entries(), c.QueryParam("msg"), CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.Site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminRevalidate drops one cache key, or everything when key is empty,
// so the next request fetches from Notion.
func (a *App) handleAdminRevalidate(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	key := c.FormValue("key")
	if key == "" {
		a.Cache.InvalidateAll()
		a.Previews.Forget()
		return redirectAdmin(c, "Cleared all cached content.")
	}
	a.Cache.Invalidate(key)
	return redirectAdmin(c, "Revalidated "+key+".")
}

func (a *App) handleAdminPurgeImages(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	n, err := a.purgeImages()
	if err != nil {
		return err
	}
	return redirectAdmin(c, "Removed "+strconv.Itoa(n)+" cached images.")
}

func redirectAdmin(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}
