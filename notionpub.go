// Package notionpub is a blog front end that serves pages and databases of a
// Notion workspace as HTML, built with Go, Echo, and templ.
//
// Content is fetched from the Notion API, cached with stale-while-revalidate
// semantics, snapshotted to SQLite, and rendered block by block by the views
// package. Users may replace any page template via the ViewFuncs struct.
package notionpub

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/notionpub/hits"
	"github.com/eringen/notionpub/linkpreview"
	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/views"
)

// ViewFuncs holds the templ components the framework calls when rendering
// pages. Zero fields fall back to the views package.
type ViewFuncs struct {
	Home           func(site views.SiteConfig, meta views.PageMeta, listing views.DatabaseViewProps, opts views.RenderOptions) templ.Component
	Page           func(site views.SiteConfig, meta views.PageMeta, p views.PageProps, opts views.RenderOptions) templ.Component
	Search         func(site views.SiteConfig, meta views.PageMeta, query string, results []views.SearchResult) templ.Component
	AdminLogin     func(site views.SiteConfig, showError bool, csrfToken string) templ.Component
	AdminDashboard func(site views.SiteConfig, entries []views.CacheEntry, message, csrfToken string) templ.Component
	NotFound       func(site views.SiteConfig) templ.Component
	ServerError    func(site views.SiteConfig) templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Home == nil {
		v.Home = views.Home
	}
	if v.Page == nil {
		v.Page = views.Page
	}
	if v.Search == nil {
		v.Search = views.Search
	}
	if v.AdminLogin == nil {
		v.AdminLogin = views.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = views.AdminDashboard
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}

// App is the central notionpub application. It wires together the Notion
// client, content cache, store, handlers, middleware, and templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *ContentCache
	Content  *Content
	Previews *linkpreview.Service
	Hits     *hits.Handler
	Views    ViewFuncs

	notion       *notion.Client
	http         *http.Client
	loc          *time.Location
	site         atomic.Pointer[views.SiteConfig]
	siteFile     *SiteFile
	loginLimiter *LoginLimiter
	hitsStore    *hits.Store
	customRoutes []func(*App)
	staticDir    string
	stops        []func()
	now          func() time.Time
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	v.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     v,
		staticDir: "public",
		loc:       cfg.location(),
		now:       time.Now,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.http == nil {
		a.http = &http.Client{Timeout: 30 * time.Second}
	}
	if a.notion == nil {
		a.notion = notion.NewClient(cfg.NotionToken, notion.WithHTTPClient(a.http))
	}
	return a
}

// Init opens the stores and builds the middleware and routes. Start calls it;
// tests call it directly and drive a.Echo.
func (a *App) Init() error {
	if err := a.Config.validate(); err != nil {
		return fmt.Errorf("notionpub: %w", err)
	}
	if a.Config.AdminPassword != "" && a.Config.SessionSecret == "" {
		return fmt.Errorf("notionpub: ADMIN_SESSION_SECRET is required when ADMIN_PASSWORD is set")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("notionpub: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewContentCache(a.Store, a.Config.Revalidate)

	content, err := NewContent(a.notion, a.Cache, a.Config.BaseBlock)
	if err != nil {
		return fmt.Errorf("notionpub: %w", err)
	}
	a.Content = content

	if a.siteFile == nil {
		f, err := LoadSiteFile(a.Config.SiteFile)
		if err != nil {
			return fmt.Errorf("notionpub: %w", err)
		}
		a.siteFile = &f
	}
	if err := a.applySiteFile(*a.siteFile); err != nil {
		return fmt.Errorf("notionpub: %w", err)
	}

	if a.Previews == nil {
		a.Previews = linkpreview.NewService()
	}
	a.stops = append(a.stops, a.Previews.Sweep(time.Hour))
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.stops = append(a.stops, a.loginLimiter.Close)

	if a.Config.HitsEnabled {
		hitsStore, err := hits.NewStore(a.Config.HitsDatabasePath)
		if err != nil {
			return fmt.Errorf("notionpub: init hits: %w", err)
		}
		a.hitsStore = hitsStore
		a.Hits, err = hits.NewHandler(hitsStore, a.loc)
		if err != nil {
			return fmt.Errorf("notionpub: init hits salt: %w", err)
		}
		a.stops = append(a.stops, a.Hits.Sweep(5*time.Minute))
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app, starts the background jobs and the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}

	stopWarmer, err := a.StartWarmer(a.Config.WarmSchedule)
	if err != nil {
		return fmt.Errorf("notionpub: %w", err)
	}
	a.stops = append(a.stops, stopWarmer)

	if w, err := a.WatchSiteFile(a.Config.SiteFile); err != nil {
		log.Printf("watch: %v", err)
	} else if w != nil {
		a.stops = append(a.stops, func() { w.Close() })
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Site returns the view configuration currently in effect.
func (a *App) Site() views.SiteConfig {
	if s := a.site.Load(); s != nil {
		return *s
	}
	return views.SiteConfig{Name: a.Config.Name, URL: a.Config.URL, Location: a.loc}
}

// applySiteFile rebuilds the view configuration from f.
func (a *App) applySiteFile(f SiteFile) error {
	links, err := views.NewURLRewriter(f.Notion.CustomDomain, f.Notion.NotionSoPattern, f.Notion.NotionSitePattern)
	if err != nil {
		return err
	}
	site := views.SiteConfig{
		Name:        a.Config.Name,
		URL:         strings.TrimRight(a.Config.URL, "/"),
		Description: a.Config.Description,
		Author:      a.Config.Author,
		BaseBlock:   notion.CompactID(a.Content.BaseID()),
		Location:    a.loc,
		HeaderNav:   f.HeaderNav,
		Links:       links,
	}
	a.site.Store(&site)
	return nil
}

func (a *App) renderOptions(c echo.Context) views.RenderOptions {
	return views.RenderOptions{
		Site:     a.Site(),
		Previews: a.Previews,
		Sort:     views.ParseSort(c.QueryParam("sort"), c.QueryParam("order")),
		Now:      a.now(),
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets first; the user's static dir serves everything else.
	e.GET("/public/notion.css", a.handleEmbedded)
	e.GET("/public/notion.js", a.handleEmbedded)
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/image", a.handleImage)
	e.GET("/file/:blockId", a.handleFile)
	e.GET(views.SecureStaticProxy+"/*", a.handleSecureStatic)

	api := e.Group("/api/v1")
	api.GET("/notion/pages/:id", a.handleAPIPage)
	api.GET("/notion/databases/:id", a.handleAPIDatabase)
	api.GET("/notion/blocks/:id", a.handleAPIBlocks)
	api.GET("/link-preview", a.handleLinkPreview)

	if a.Hits != nil {
		a.Hits.RegisterRoutes(e)
	}

	if a.Config.AdminPassword != "" {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
		e.POST("/admin/revalidate/", a.handleAdminRevalidate)
		e.POST("/admin/images/purge/", a.handleAdminPurgeImages)
	}

	e.GET("/", a.handleHome)
	e.GET("/category/:category/", a.handleCategory)
	e.GET("/tag/:tag/", a.handleTag)
	e.GET("/s/", a.handleSearch)
	e.GET("/:slug/", a.handlePage)
	e.GET("/:id/:slug/", a.handleDatabaseRow)
}

// Close stops background jobs and closes the stores.
func (a *App) Close() error {
	for _, stop := range a.stops {
		stop()
	}
	a.stops = nil
	if a.Store != nil {
		a.Store.Close()
	}
	if a.hitsStore != nil {
		a.hitsStore.Close()
	}
	return nil
}

// randomSecret is the session key when the admin is disabled and no secret
// was configured. Sessions then do not survive restarts, which nothing needs.
func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
