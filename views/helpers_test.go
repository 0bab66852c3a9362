package views

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/eringen/notionpub/notion"
)

func TestTitleSlugNormalizes(t *testing.T) {
	decomposed := "Cafe\u0301"
	if got := TitleSlug(decomposed); got != "Caf\u00e9" {
		t.Errorf("TitleSlug(%q) = %q, want NFC form", decomposed, got)
	}
	long := strings.Repeat("한", 80)
	if got := TitleSlug(long); got != strings.Repeat("한", TitleSlugMaxLength) {
		t.Errorf("TitleSlug should cut to %d runes, got %d", TitleSlugMaxLength, len([]rune(got)))
	}
}

func TestHeadingHash(t *testing.T) {
	if got := HeadingHash("Intro", "abcdef1234"); got != "Intro-abcdef12" {
		t.Errorf("HeadingHash = %q", got)
	}
	if got := HeadingHash(strings.Repeat("x", 70), "abc"); got != strings.Repeat("x", 50)+"-abc" {
		t.Errorf("HeadingHash long = %q", got)
	}
}

func TestFormatDateUsesSiteZone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	ts := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	if got := FormatDate(SiteConfig{Location: seoul}, ts); got != "2024-05-02" {
		t.Errorf("FormatDate(Seoul) = %q", got)
	}
	if got := FormatDate(SiteConfig{}, ts); got != "2024-05-01" {
		t.Errorf("FormatDate(UTC) = %q", got)
	}
	if got := FormatDate(SiteConfig{}, time.Time{}); got != "" {
		t.Errorf("zero time = %q", got)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if got := RelativeTime(now.Add(-72*time.Hour), now); got != "3 days ago" {
		t.Errorf("RelativeTime = %q", got)
	}
}

func TestDescription(t *testing.T) {
	var blocks []notion.Block
	for i := 0; i < 12; i++ {
		blocks = append(blocks, textBlock("p", notion.TypeParagraph, "line\n"+string(rune('a'+i))))
	}
	got := Description(blocks)
	if strings.Contains(got, "\n") {
		t.Errorf("newlines not removed: %q", got)
	}
	if strings.Contains(got, "linek") {
		t.Errorf("only the first ten blocks count: %q", got)
	}
	if !strings.HasPrefix(got, "linea lineb") {
		t.Errorf("Description = %q", got)
	}

	long := []notion.Block{textBlock("p", notion.TypeParagraph, strings.Repeat("z", 300))}
	if n := len([]rune(Description(long))); n != 155 {
		t.Errorf("description length = %d", n)
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	page := &notion.Page{
		CreatedTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Properties: map[string]notion.PropertyValue{
			"tags": {Type: "multi_select", MultiSelect: []notion.SelectOption{{Name: "go"}, {Name: "notion"}}},
		},
	}
	out := BlogPostingJsonLD(SiteConfig{Name: "Blog", Author: "Kim"}, PageMeta{Title: "Post", URL: "https://x.dev/post"}, page)
	var data map[string]any
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data["headline"] != "Post" || data["keywords"] != "go, notion" || data["datePublished"] != "2024-01-02T03:04:05Z" {
		t.Errorf("unexpected json-ld: %s", out)
	}
}

func TestFavicon(t *testing.T) {
	got := Favicon(&notion.Icon{Type: "emoji", Emoji: "🚀"}, "id")
	if !strings.HasPrefix(got, "data:image/svg+xml,") || !strings.Contains(got, "font-size=%2290%22") {
		t.Errorf("emoji favicon = %q", got)
	}
	if got := Favicon(nil, "id"); got != "" {
		t.Errorf("nil icon favicon = %q", got)
	}
	ext := Favicon(&notion.Icon{Type: "external", External: &notion.ExternalRef{URL: "https://x.dev/i.png"}}, "id")
	if ext != "https://x.dev/i.png" {
		t.Errorf("external favicon = %q", ext)
	}
}

func TestNewPageMeta(t *testing.T) {
	page := &notion.Page{
		ID: "p1",
		Properties: map[string]notion.PropertyValue{
			"title": {Type: "title", Title: []notion.RichText{{PlainText: strings.Repeat("t", 70)}}},
		},
		Cover: &notion.FileObject{Type: "external", External: &notion.ExternalRef{URL: "https://x.dev/c.png"}},
	}
	meta := NewPageMeta(SiteConfig{URL: "https://blog.dev/", Description: "site"}, notion.Object{Kind: "page", Page: page}, nil, "my-post")
	if meta.Title != strings.Repeat("t", 60) {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.URL != "https://blog.dev/my-post" {
		t.Errorf("url = %q", meta.URL)
	}
	if meta.Image != "https://x.dev/c.png" {
		t.Errorf("image = %q", meta.Image)
	}
	if meta.Description != "site" {
		t.Errorf("empty pages should fall back to the site description, got %q", meta.Description)
	}

	untitled := NewPageMeta(SiteConfig{}, notion.Object{Kind: "page", Page: &notion.Page{ID: "p2"}}, nil, "x")
	if untitled.Title != "Untitled" {
		t.Errorf("untitled title = %q", untitled.Title)
	}
}
