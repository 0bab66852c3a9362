package notionpub

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/eringen/notionpub/notion"
	"github.com/eringen/notionpub/views"
)

// SiteConfig holds all configuration for a notionpub site. Fields are read
// from the environment by LoadConfig.
type SiteConfig struct {
	NotionToken string `env:"NOTION_API_SECRET_KEY"` // Required: integration token
	BaseBlock   string `env:"NOTION_BASE_BLOCK"`     // Required: id of the base database
	Name        string `env:"BLOG_NAME"`             // Required: site name

	URL         string `env:"SITE_URL" envDefault:"http://localhost:3000"` // Canonical origin
	Description string `env:"SITE_DESCRIPTION"`
	Author      string `env:"SITE_AUTHOR"` // Author name for JSON-LD

	Addr          string `env:"ADDR" envDefault:":3000"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"data/notionpub.db"`
	ImageCacheDir string `env:"IMAGE_CACHE_DIR" envDefault:"data/images"`
	SiteFile      string `env:"SITE_FILE" envDefault:"site.yaml"`

	HitsEnabled      bool   `env:"HITS_ENABLED" envDefault:"true"`
	HitsDatabasePath string `env:"HITS_DATABASE_PATH" envDefault:"data/hits.db"`

	TimeZone     string        `env:"TZ" envDefault:"Asia/Seoul"`
	Revalidate   time.Duration `env:"REVALIDATE" envDefault:"10m"` // Content cache TTL
	WarmSchedule string        `env:"WARM_SCHEDULE" envDefault:"@every 30m"`

	AdminPassword string `env:"ADMIN_PASSWORD"` // Admin is disabled when empty
	SessionSecret string `env:"ADMIN_SESSION_SECRET"`
	CookieSecure  bool   `env:"COOKIE_SECURE"` // Set true for HTTPS
}

// LoadConfig reads SiteConfig from the environment.
func LoadConfig() (SiteConfig, error) {
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *SiteConfig) validate() error {
	required := []struct{ name, value string }{
		{"NOTION_API_SECRET_KEY", c.NotionToken},
		{"NOTION_BASE_BLOCK", c.BaseBlock},
		{"BLOG_NAME", c.Name},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("The environment variable `%s` is required", r.name)
		}
	}
	if _, err := notion.NormalizeID(c.BaseBlock); err != nil {
		return fmt.Errorf("NOTION_BASE_BLOCK %q is not a Notion id: %w", c.BaseBlock, err)
	}
	return nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/notionpub.db"
	}
	if c.HitsDatabasePath == "" {
		c.HitsDatabasePath = "data/hits.db"
	}
	if c.ImageCacheDir == "" {
		c.ImageCacheDir = "data/images"
	}
	if c.Revalidate == 0 {
		c.Revalidate = 10 * time.Minute
	}
}

func (c *SiteConfig) location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SiteFile is the YAML file holding navigation and link rewriting settings.
// It is reloaded while the server runs.
type SiteFile struct {
	HeaderNav []views.NavItem `yaml:"headerNav"`
	Notion    struct {
		CustomDomain      string `yaml:"customDomain"`
		NotionSoPattern   string `yaml:"notionSoPattern"`
		NotionSitePattern string `yaml:"notionSitePattern"`
	} `yaml:"notion"`
}

// LoadSiteFile reads path. A missing file yields an empty SiteFile.
func LoadSiteFile(path string) (SiteFile, error) {
	var f SiteFile
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("read site file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse site file %s: %w", path, err)
	}
	return f, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithNotionClient replaces the API client built from the token.
func WithNotionClient(c *notion.Client) Option {
	return func(a *App) {
		a.notion = c
	}
}

// WithHTTPClient sets the client used for image, file and link preview fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.http = c
	}
}

// WithSiteFile sets the site file contents instead of reading Config.SiteFile.
func WithSiteFile(f SiteFile) Option {
	return func(a *App) {
		a.siteFile = &f
	}
}
