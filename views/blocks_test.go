package views

import (
	"strings"
	"testing"
	"time"

	"github.com/eringen/notionpub/linkpreview"
	"github.com/eringen/notionpub/notion"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func textBlock(id, typ, text string) notion.Block {
	b := notion.Block{ID: id, Type: typ}
	tb := &notion.TextBlock{RichText: []notion.RichText{run(text, notion.Annotations{})}}
	switch typ {
	case notion.TypeParagraph:
		b.Paragraph = tb
	case notion.TypeHeading1:
		b.Heading1 = tb
	case notion.TypeHeading2:
		b.Heading2 = tb
	case notion.TypeHeading3:
		b.Heading3 = tb
	case notion.TypeBulletedListItem:
		b.BulletedListItem = tb
	case notion.TypeNumberedListItem:
		b.NumberedListItem = tb
	case notion.TypeToggle:
		b.Toggle = tb
	case notion.TypeQuote:
		b.Quote = tb
	}
	return b
}

func renderTree(t *testing.T, tree *notion.Tree, opts RenderOptions) string {
	t.Helper()
	if opts.Now.IsZero() {
		opts.Now = testNow
	}
	return render(t, Blocks(tree, opts))
}

func TestBlocksNumberedListRestarts(t *testing.T) {
	tree := &notion.Tree{Blocks: notion.BlockList{Results: []notion.Block{
		textBlock("n1", notion.TypeNumberedListItem, "one"),
		textBlock("n2", notion.TypeNumberedListItem, "two"),
		textBlock("n3", notion.TypeNumberedListItem, "three"),
		textBlock("p1", notion.TypeParagraph, "break"),
		textBlock("n4", notion.TypeNumberedListItem, "again"),
	}}}
	out := renderTree(t, tree, RenderOptions{})

	for _, want := range []string{">1.</div>", ">2.</div>", ">3.</div>"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
	again := out[strings.Index(out, "break"):]
	if !strings.Contains(again, ">1.</div>") || strings.Contains(again, ">4.</div>") {
		t.Errorf("numbering should restart after a paragraph: %s", again)
	}
}

func TestBlocksNestedChildren(t *testing.T) {
	parent := textBlock("b1", notion.TypeBulletedListItem, "parent")
	parent.HasChildren = true
	child := textBlock("b2", notion.TypeBulletedListItem, "child")

	tree := &notion.Tree{
		Blocks:   notion.BlockList{Results: []notion.Block{parent}},
		Children: map[string]notion.BlockList{"b1": {Results: []notion.Block{child}}},
	}
	out := renderTree(t, tree, RenderOptions{})

	if !strings.Contains(out, `<div class="ml-6">`) {
		t.Fatalf("children not indented: %s", out)
	}
	if !strings.Contains(out, "•") || !strings.Contains(out, "◦") {
		t.Errorf("bullet glyph should change with depth: %s", out)
	}
	if strings.Index(out, "parent") > strings.Index(out, "child") {
		t.Errorf("child rendered before parent")
	}
}

func TestBlocksDepthLimit(t *testing.T) {
	tree := &notion.Tree{Children: map[string]notion.BlockList{}}
	var prev *notion.Block
	for i := 0; i < MaxDepth+3; i++ {
		id := "d" + string(rune('a'+i))
		b := textBlock(id, notion.TypeParagraph, "level-"+id)
		b.HasChildren = true
		if prev == nil {
			tree.Blocks.Results = []notion.Block{b}
		} else {
			tree.Children[prev.ID] = notion.BlockList{Results: []notion.Block{b}}
		}
		prev = &b
	}
	out := renderTree(t, tree, RenderOptions{})
	if got := strings.Count(out, "level-"); got != MaxDepth {
		t.Fatalf("rendered %d levels, want %d", got, MaxDepth)
	}
}

func TestBlocksToDo(t *testing.T) {
	todo := notion.Block{ID: "t1", Type: notion.TypeToDo, ToDo: &notion.ToDoBlock{
		RichText: []notion.RichText{run("ship it", notion.Annotations{})},
		Checked:  true,
	}}
	out := renderTree(t, &notion.Tree{Blocks: notion.BlockList{Results: []notion.Block{todo}}}, RenderOptions{})
	if !strings.Contains(out, "disabled checked") {
		t.Errorf("checkbox not checked: %s", out)
	}
	if !strings.Contains(out, `<span class="line-through">ship it</span>`) {
		t.Errorf("checked item not struck through: %s", out)
	}
	if !strings.Contains(out, "text-notion-gray") {
		t.Errorf("checked item not grayed: %s", out)
	}
}

func TestBlocksHeadingAnchor(t *testing.T) {
	h := textBlock("abcdef12-3456-7890-abcd-ef1234567890", notion.TypeHeading2, "Getting started")
	out := renderTree(t, &notion.Tree{Blocks: notion.BlockList{Results: []notion.Block{h}}}, RenderOptions{})
	if !strings.Contains(out, `id="Getting started-abcdef12"`) {
		t.Errorf("anchor id missing: %s", out)
	}
	if !strings.Contains(out, `href="#Getting started-abcdef12"`) {
		t.Errorf("heading link missing: %s", out)
	}
	if !strings.Contains(out, "text-[1.5em]") {
		t.Errorf("heading size class missing: %s", out)
	}
}

func TestBlocksToggleableHeading(t *testing.T) {
	h := textBlock("h1", notion.TypeHeading1, "More")
	h.Heading1.IsToggleable = true
	h.HasChildren = true
	tree := &notion.Tree{
		Blocks:   notion.BlockList{Results: []notion.Block{h}},
		Children: map[string]notion.BlockList{"h1": {Results: []notion.Block{textBlock("p", notion.TypeParagraph, "hidden")}}},
	}
	out := renderTree(t, tree, RenderOptions{})
	if !strings.Contains(out, "<details") || !strings.Contains(out, "<summary") {
		t.Fatalf("toggleable heading should use details: %s", out)
	}
	if strings.Index(out, "hidden") < strings.Index(out, "</summary>") {
		t.Errorf("children should follow the summary")
	}
}

func TestBlocksTable(t *testing.T) {
	table := notion.Block{ID: "tbl", Type: notion.TypeTable, HasChildren: true, Table: &notion.TableBlock{TableWidth: 2, HasColumnHeader: true}}
	row := func(id, a, b string) notion.Block {
		return notion.Block{ID: id, Type: notion.TypeTableRow, TableRow: &notion.TableRowBlock{Cells: [][]notion.RichText{
			{run(a, notion.Annotations{})}, {run(b, notion.Annotations{})},
		}}}
	}
	tree := &notion.Tree{
		Blocks:   notion.BlockList{Results: []notion.Block{table}},
		Children: map[string]notion.BlockList{"tbl": {Results: []notion.Block{row("r1", "Name", "Age"), row("r2", "Kim", "30")}}},
	}
	out := renderTree(t, tree, RenderOptions{})
	if strings.Count(out, "<tr>") != 2 || strings.Count(out, "<td>") != 4 {
		t.Fatalf("unexpected table shape: %s", out)
	}
	if !strings.Contains(out, "notion-table-column-header") {
		t.Errorf("column header class missing")
	}
}

func TestBlocksColumns(t *testing.T) {
	list := notion.Block{ID: "cl", Type: notion.TypeColumnList, HasChildren: true, ColumnList: &notion.Empty{}}
	tree := &notion.Tree{
		Blocks: notion.BlockList{Results: []notion.Block{list}},
		Children: map[string]notion.BlockList{
			"cl": {Results: []notion.Block{
				{ID: "c1", Type: notion.TypeColumn, HasChildren: true, Column: &notion.Empty{}},
				{ID: "c2", Type: notion.TypeColumn, HasChildren: true, Column: &notion.Empty{}},
				{ID: "c3", Type: notion.TypeColumn, HasChildren: true, Column: &notion.Empty{}},
			}},
			"c1": {Results: []notion.Block{textBlock("x", notion.TypeParagraph, "left")}},
			"c3": {Results: []notion.Block{textBlock("y", notion.TypeParagraph, "right")}},
		},
	}
	out := renderTree(t, tree, RenderOptions{})
	if !strings.Contains(out, "repeat(3, 1fr)") {
		t.Errorf("grid should have three columns: %s", out)
	}
	if !strings.Contains(out, "left") || !strings.Contains(out, "right") {
		t.Errorf("column content missing")
	}
}

func TestBlocksEmptyBookmark(t *testing.T) {
	b := notion.Block{ID: "bm", Type: notion.TypeBookmark, Bookmark: &notion.LinkBlock{}}
	out := renderTree(t, &notion.Tree{Blocks: notion.BlockList{Results: []notion.Block{b}}}, RenderOptions{})
	if out != "<span></span>" {
		t.Fatalf("got %q", out)
	}
}

type stubPreviews map[string]string

func (s stubPreviews) Lookup(u string) (*linkpreview.Preview, bool) {
	title, ok := s[u]
	if !ok {
		return nil, false
	}
	return &linkpreview.Preview{URL: u, Title: title}, true
}

func TestBlocksBookmarkPreview(t *testing.T) {
	blocks := []notion.Block{
		{ID: "a", Type: notion.TypeBookmark, Bookmark: &notion.LinkBlock{URL: "https://go.dev/"}},
		{ID: "b", Type: notion.TypeBookmark, Bookmark: &notion.LinkBlock{URL: "https://unknown.example/"}},
	}
	out := renderTree(t, &notion.Tree{Blocks: notion.BlockList{Results: blocks}}, RenderOptions{
		Previews: stubPreviews{"https://go.dev/": "The Go Programming Language"},
	})
	if !strings.Contains(out, "The Go Programming Language") || !strings.Contains(out, "card-title") {
		t.Errorf("preview card missing: %s", out)
	}
	if !strings.Contains(out, `<a class="underline" href="https://unknown.example/"`) {
		t.Errorf("fallback link missing: %s", out)
	}
}

func TestBlocksUnknownTypeRendersNothing(t *testing.T) {
	b := notion.Block{ID: "u", Type: "ai_block"}
	if out := renderTree(t, &notion.Tree{Blocks: notion.BlockList{Results: []notion.Block{b}}}, RenderOptions{}); out != "" {
		t.Fatalf("got %q", out)
	}
}

func checkbox(v bool) *bool { return &v }

func row(id, title string, created time.Time, published bool) notion.Page {
	return notion.Page{
		ID:          id,
		CreatedTime: created,
		Properties: map[string]notion.PropertyValue{
			"title":                  {Type: "title", Title: []notion.RichText{run(title, notion.Annotations{})}},
			notion.PublishedProperty: {Type: "checkbox", Checkbox: checkbox(published)},
		},
	}
}

func TestBlocksChildDatabase(t *testing.T) {
	db := notion.Block{ID: "db123456-0000-0000-0000-000000000000", Type: notion.TypeChildDatabase, ChildDatabase: &notion.TitleBlock{Title: "Notes"}}
	tree := &notion.Tree{
		Blocks: notion.BlockList{Results: []notion.Block{db}},
		Databases: map[string]notion.DatabaseQuery{db.ID: {Results: []notion.Page{
			row("11111111-1111-1111-1111-111111111111", "Older", testNow.Add(-48*time.Hour), true),
			row("22222222-2222-2222-2222-222222222222", "Draft", testNow.Add(-24*time.Hour), false),
			row("33333333-3333-3333-3333-333333333333", "Newer", testNow.Add(-time.Hour), true),
		}}},
	}

	out := renderTree(t, tree, RenderOptions{})
	if strings.Contains(out, "Draft") {
		t.Errorf("unpublished row rendered")
	}
	if strings.Index(out, "Newer") > strings.Index(out, "Older") {
		t.Errorf("default order should be newest first")
	}
	if !strings.Contains(out, `href="/Newer-33333333333333333333333333333333"`) {
		t.Errorf("card link missing: %s", out)
	}
	if !strings.Contains(out, "Created↓") {
		t.Errorf("sort menu should show the current order")
	}
	if !strings.Contains(out, "?sort=created_time&amp;order=asc#Notes-db123456") {
		t.Errorf("sort toggle link missing: %s", out)
	}

	asc := renderTree(t, tree, RenderOptions{Sort: SortOrder{Key: SortCreated, Asc: true}})
	if strings.Index(asc, "Older") > strings.Index(asc, "Newer") {
		t.Errorf("ascending order should put the oldest first")
	}
}
