package views

import (
	"strings"
	"testing"
	"time"

	"github.com/eringen/notionpub/notion"
)

func article(id, title, category string, tags ...string) notion.Page {
	p := notion.Page{
		ID:     id,
		Parent: notion.Parent{Type: "database_id", DatabaseID: "base"},
		Properties: map[string]notion.PropertyValue{
			"title": {Type: "title", Title: []notion.RichText{{PlainText: title}}},
			"slug":  {Type: "rich_text", RichText: []notion.RichText{{PlainText: strings.ToLower(title)}}},
		},
	}
	if category != "" {
		p.Properties["category"] = notion.PropertyValue{Type: "select", Select: &notion.SelectOption{Name: category}}
	}
	var opts []notion.SelectOption
	for _, t := range tags {
		opts = append(opts, notion.SelectOption{Name: t, Color: notion.ColorBlue})
	}
	p.Properties["tags"] = notion.PropertyValue{Type: "multi_select", MultiSelect: opts}
	return p
}

func blogDatabase() *notion.Database {
	return &notion.Database{
		ID: "base",
		Properties: map[string]notion.PropertySchema{
			"category": {Name: "category", Type: "select"},
			"tags": {Name: "tags", Type: "multi_select", MultiSelect: &notion.OptionsSchema{Options: []notion.SelectOption{
				{Name: "web", Color: notion.ColorGreen}, {Name: "go", Color: notion.ColorBlue},
			}}},
		},
	}
}

func TestFilterRows(t *testing.T) {
	rows := []notion.Page{
		article("1", "Echo routing", "dev", "go", "web"),
		article("2", "Templ views", "dev", "web"),
		article("3", "Travel notes", "life"),
	}
	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"none", ListFilter{}, []string{"1", "2", "3"}},
		{"category", ListFilter{Category: "dev"}, []string{"1", "2"}},
		{"tag", ListFilter{Tag: "go"}, []string{"1"}},
		{"category and tag", ListFilter{Category: "life", Tag: "web"}, nil},
		{"query is case insensitive", ListFilter{Query: "TEMPL"}, []string{"2"}},
		{"query ignores category", ListFilter{Query: "notes", Category: "dev"}, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRows(rows, tt.filter)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestCategoriesAndTags(t *testing.T) {
	db := blogDatabase()
	rows := []notion.Page{
		article("1", "a", "dev"),
		article("2", "b", "life"),
		article("3", "c", "dev"),
		article("4", "d", ""),
	}
	cats := Categories(db, rows)
	if len(cats) != 2 || cats[0] != (CategoryCount{"dev", 2}) || cats[1] != (CategoryCount{"life", 1}) {
		t.Errorf("Categories = %+v", cats)
	}
	if got := Categories(&notion.Database{}, rows); got != nil {
		t.Errorf("database without category column = %+v", got)
	}

	tags := Tags(db)
	if len(tags) != 2 || tags[0].Name != "go" || tags[1].Name != "web" {
		t.Errorf("Tags = %+v", tags)
	}
	if Tags(nil) != nil {
		t.Error("Tags(nil) should be nil")
	}
}

func TestSortRows(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []notion.Page{
		{ID: "b", CreatedTime: base.Add(2 * time.Hour), LastEditedTime: base.Add(3 * time.Hour),
			Properties: map[string]notion.PropertyValue{"title": {Type: "title", Title: []notion.RichText{{PlainText: "Beta"}}}}},
		{ID: "a", CreatedTime: base.Add(time.Hour), LastEditedTime: base.Add(5 * time.Hour),
			Properties: map[string]notion.PropertyValue{"title": {Type: "title", Title: []notion.RichText{{PlainText: "Alpha"}}}}},
		{ID: "c", CreatedTime: base.Add(3 * time.Hour), LastEditedTime: base.Add(4 * time.Hour),
			Properties: map[string]notion.PropertyValue{"title": {Type: "title", Title: []notion.RichText{{PlainText: "Gamma"}}}}},
	}
	ids := func() string {
		var s []string
		for _, r := range rows {
			s = append(s, r.ID)
		}
		return strings.Join(s, "")
	}

	SortRows(rows, DefaultSort)
	if ids() != "cba" {
		t.Errorf("created desc = %s", ids())
	}
	SortRows(rows, SortOrder{Key: SortTitle, Asc: true})
	if ids() != "abc" {
		t.Errorf("title asc = %s", ids())
	}
	SortRows(rows, SortOrder{Key: SortEdited})
	if ids() != "acb" {
		t.Errorf("edited desc = %s", ids())
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		key, order string
		want       SortOrder
	}{
		{"", "", DefaultSort},
		{"bogus", "asc", DefaultSort},
		{"title", "", SortOrder{Key: SortTitle, Asc: true}},
		{"title", "desc", SortOrder{Key: SortTitle}},
		{"last_edited_time", "asc", SortOrder{Key: SortEdited, Asc: true}},
	}
	for _, tt := range tests {
		if got := ParseSort(tt.key, tt.order); got != tt.want {
			t.Errorf("ParseSort(%q, %q) = %+v, want %+v", tt.key, tt.order, got, tt.want)
		}
	}
}

func TestDatabaseViewBaseLinks(t *testing.T) {
	site := SiteConfig{BaseBlock: "base"}
	rows := []notion.Page{article("1", "Hello", "dev", "go")}
	out := render(t, DatabaseView(site, DatabaseViewProps{Database: blogDatabase(), Rows: rows}, RenderOptions{Now: testNow}))

	for _, want := range []string{
		`href="/category/dev/"`,
		`href="/tag/go/"`,
		`href="/hello"`,
		`name="q"`,
		"text-notion-tag-blue",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestDatabaseViewEmpty(t *testing.T) {
	out := render(t, DatabaseView(SiteConfig{}, DatabaseViewProps{
		Database: blogDatabase(),
		Filter:   ListFilter{Tag: "go"},
		Path:     "/notes",
	}, RenderOptions{Now: testNow}))
	if !strings.Contains(out, "There are no posts.") {
		t.Errorf("empty listing message missing")
	}
	if !strings.Contains(out, `href="/notes?tag=web"`) {
		t.Errorf("non-base databases should filter with query params: %s", out)
	}
}
