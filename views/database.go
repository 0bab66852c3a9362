package views

import (
	"bytes"
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/notionpub/notion"
)

var sortLabels = map[SortKey]string{
	SortTitle:   "Name",
	SortCreated: "Created",
	SortEdited:  "Edited",
}

// PublishedRows keeps rows whose isPublished checkbox is set, when the rows
// carry that property at all.
func PublishedRows(rows []notion.Page) []notion.Page {
	if len(rows) == 0 {
		return rows
	}
	if p := rows[0].Prop(notion.PublishedProperty); p == nil || p.Type != "checkbox" {
		return rows
	}
	out := make([]notion.Page, 0, len(rows))
	for _, row := range rows {
		if p := row.Prop(notion.PublishedProperty); p != nil && p.Checkbox != nil && *p.Checkbox {
			out = append(out, row)
		}
	}
	return out
}

// SortRows orders rows in place.
func SortRows(rows []notion.Page, order SortOrder) {
	less := func(a, b *notion.Page) bool {
		switch order.Key {
		case SortTitle:
			return a.Title() < b.Title()
		case SortEdited:
			return a.LastEditedTime.Before(b.LastEditedTime)
		default:
			return a.CreatedTime.Before(b.CreatedTime)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if order.Asc {
			return less(&rows[i], &rows[j])
		}
		return less(&rows[j], &rows[i])
	})
}

// nextSort is the order a sort menu entry switches to: the same key flips
// direction, a new key starts at its natural direction.
func nextSort(current SortOrder, key SortKey) SortOrder {
	if current.Key == key {
		return SortOrder{Key: key, Asc: !current.Asc}
	}
	return SortOrder{Key: key, Asc: key == SortTitle}
}

func sortQuery(o SortOrder) string {
	order := "desc"
	if o.Asc {
		order = "asc"
	}
	return "?sort=" + url.QueryEscape(string(o.Key)) + "&order=" + order
}

func (r *renderer) childDatabase(buf *bytes.Buffer, b *notion.Block) {
	if b.ChildDatabase == nil {
		return
	}
	title := b.ChildDatabase.Title
	hash := HeadingHash(title, b.ID)
	rows := append([]notion.Page(nil), PublishedRows(r.tree.Databases[b.ID].Results)...)
	SortRows(rows, r.opts.Sort)

	buf.WriteString(`<div><div id="`)
	buf.WriteString(templ.EscapeString(hash))
	buf.WriteString(`" class="pt-[2.1em] mb-1"><div class="font-bold flex break-all leading-[1.2em] text-[2em] notion-heading-link-copy">`)
	buf.WriteString(`<div class="flex-auto"><div class="flex items-center justify-between"><p class="break-words break-all">`)
	buf.WriteString(templ.EscapeString(first(title, "Untitled")))
	buf.WriteString(`<span class="heading-link"><a href="#`)
	buf.WriteString(templ.EscapeString(hash))
	buf.WriteString(`">&nbsp;🔗</a></span></p>`)

	arrow := "↓"
	if r.opts.Sort.Asc {
		arrow = "↑"
	}
	buf.WriteString(`<details class="dropdown dropdown-left"><summary class="m-1 text-xl whitespace-nowrap flex-nowrap btn btn-ghost btn-sm text-inherit">`)
	buf.WriteString(templ.EscapeString(sortLabels[r.opts.Sort.Key]))
	buf.WriteString(arrow)
	buf.WriteString(`</summary><ul class="p-2 text-xl shadow dropdown-content menu bg-base-300 rounded-box w-52">`)
	for _, key := range []SortKey{SortTitle, SortCreated, SortEdited} {
		buf.WriteString(`<li><a href="`)
		buf.WriteString(templ.EscapeString(sortQuery(nextSort(r.opts.Sort, key)) + "#" + hash))
		buf.WriteString(`">`)
		buf.WriteString(sortLabels[key])
		buf.WriteString(`</a></li>`)
	}
	buf.WriteString(`</ul></details></div></div></div></div>`)

	buf.WriteString(`<div class="grid grid-cols-1 gap-5 mb-5 sm:grid-cols-2 lg:grid-cols-3">`)
	for i := range rows {
		r.databaseCard(buf, &rows[i])
	}
	buf.WriteString(`</div></div>`)
}

func (r *renderer) databaseCard(buf *bytes.Buffer, row *notion.Page) {
	buf.WriteString(`<div><div class="rounded-xl min-w-[100px] bg-white/5 isolate overflow-hidden notion-database-card"><a href="`)
	buf.WriteString(templ.EscapeString(PageHref(row.Title(), row.ID)))
	buf.WriteString(`"><div class="page-cover h-48 transition-[filter] duration-200 ease-linear bg-white/5">`)
	writeCover(buf, row.Cover, row.Icon, row.ID, r.opts)
	buf.WriteString(`</div><div class="flex items-center justify-between px-3 py-2 gap-x-2"><div class="overflow-hidden max-h-[3.3em]">`)
	if runs := row.TitleRuns(); runs != nil {
		r.paragraph(buf, row.ID, runs, "")
	}
	buf.WriteString(`</div><div class="whitespace-nowrap"><p title="`)
	buf.WriteString(templ.EscapeString(FormatDate(r.site(), row.CreatedTime)))
	buf.WriteString(`">`)
	buf.WriteString(templ.EscapeString(RelativeTime(row.CreatedTime, r.opts.Now)))
	buf.WriteString(`</p></div></div></a></div></div>`)
}

// writeCover renders a card cover: the cover image, else the icon, else a
// placeholder.
func writeCover(buf *bytes.Buffer, cover *notion.FileObject, icon *notion.Icon, id string, opts RenderOptions) {
	switch {
	case cover != nil && cover.URL() != "":
		writeImg(buf, ImageSrc(cover, id, "block", 600, opts.Now), "page-cover", "w-full h-full object-cover")
	case icon != nil && icon.Type == "emoji":
		buf.WriteString(`<div class="notion-database-item-empty-cover">`)
		buf.WriteString(templ.EscapeString(icon.Emoji))
		buf.WriteString(`</div>`)
	case icon != nil && icon.URL() != "":
		f := &notion.FileObject{Type: icon.Type, File: icon.File, External: icon.External}
		writeImg(buf, ImageSrc(f, id, "block", 600, opts.Now), "page-icon", "w-full h-full object-contain")
	default:
		buf.WriteString(`<div class="notion-database-item-empty-cover text-base-content/10">N</div>`)
	}
}

// FilterRows applies a listing filter. A title query ignores the category and
// tag filters.
func FilterRows(rows []notion.Page, f ListFilter) []notion.Page {
	if !f.Active() {
		return rows
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []notion.Page
	for _, row := range rows {
		if q != "" {
			if strings.Contains(strings.ToLower(row.Title()), q) {
				out = append(out, row)
			}
			continue
		}
		if f.Category != "" && row.Category() != f.Category {
			continue
		}
		if f.Tag != "" && !hasTag(&row, f.Tag) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func hasTag(row *notion.Page, tag string) bool {
	for _, t := range row.Tags() {
		if t.Name == tag {
			return true
		}
	}
	return false
}

// CategoryCount is a category with its number of rows.
type CategoryCount struct {
	Name  string
	Count int
}

// Categories counts rows per category, sorted by name. Databases without a
// category select produce none.
func Categories(db *notion.Database, rows []notion.Page) []CategoryCount {
	if !db.HasProperty("category", "select") {
		return nil
	}
	counts := map[string]int{}
	for _, row := range rows {
		if c := row.Category(); c != "" {
			counts[c]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tags lists the options of the database's tags column, sorted by name.
func Tags(db *notion.Database) []notion.SelectOption {
	if db == nil {
		return nil
	}
	p, ok := db.Properties["tags"]
	if !ok || p.MultiSelect == nil {
		return nil
	}
	tags := append([]notion.SelectOption(nil), p.MultiSelect.Options...)
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

// DatabaseViewProps feeds DatabaseView.
type DatabaseViewProps struct {
	Database *notion.Database
	Rows     []notion.Page
	Filter   ListFilter
	// Path is where filter links point for databases other than the base one.
	Path string
}

// DatabaseView renders a database as a filterable article listing.
func DatabaseView(site SiteConfig, p DatabaseViewProps, opts RenderOptions) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		writeDatabaseView(buf, site, p, opts)
		return nil
	})
}

func writeDatabaseView(buf *bytes.Buffer, site SiteConfig, p DatabaseViewProps, opts RenderOptions) {
	db := p.Database
	isBase := db != nil && notion.CompactID(db.ID) == notion.CompactID(site.BaseBlock)
	base := p.Path
	if isBase || base == "" {
		base = "/"
	}

	link := func(kind, value, active string) string {
		if value == active {
			return base
		}
		if isBase {
			return "/" + kind + "/" + url.PathEscape(value) + "/"
		}
		return base + "?" + kind + "=" + url.QueryEscape(value)
	}

	buf.WriteString(`<div class="flex flex-col sm:gap-4 sm:flex-row">`)
	buf.WriteString(`<div class="notion-database-sidebar"><aside class="flex h-full grow-0 shrink-0 p-2 gap-x-2 text-sm sm:p-0 sm:mb-0 sm:flex-col sm:max-w-[200px] sm:gap-y-4 md:max-w-[220px]">`)
	buf.WriteString(`<div class="flex grow flex-col gap-y-3 sm:grow-0 sm:order-2 overflow-auto">`)

	buf.WriteString(`<ul class="flex-0 flex shrink-0 gap-x-2 overflow-x-auto whitespace-nowrap sm:flex-col sm:px-2 sm:overflow-hidden sm:gap-y-1">`)
	for _, c := range Categories(db, p.Rows) {
		buf.WriteString(`<li><a href="`)
		buf.WriteString(templ.EscapeString(link("category", c.Name, p.Filter.Category)))
		buf.WriteString(`" class="`)
		buf.WriteString(templ.EscapeString(cx(
			"flex items-center py-[0.2em] px-[0.7em] rounded-full bg-base-content/10 sm:p-0 sm:bg-[initial] sm:rounded-none sm:border-l-[3px] sm:pl-2 sm:pr-1 sm:py-0.5 border-base-content/10",
			flag(c.Name == p.Filter.Category, "bg-success/50 sm:font-bold sm:border-success"),
		)))
		buf.WriteString(`"><span class="flex-auto grow-0 shrink overflow-hidden text-ellipsis">`)
		buf.WriteString(templ.EscapeString(c.Name))
		buf.WriteString(`</span><span class="flex-auto grow-0 shrink-0">(`)
		buf.WriteString(strconv.Itoa(c.Count))
		buf.WriteString(`)</span></a></li>`)
	}
	buf.WriteString(`</ul>`)

	buf.WriteString(`<div class="hidden sm:flex grow-0 shrink-0 gap-1.5 flex-wrap break-all px-2 order-3">`)
	for _, t := range Tags(db) {
		buf.WriteString(`<a href="`)
		buf.WriteString(templ.EscapeString(link("tag", t.Name, p.Filter.Tag)))
		buf.WriteString(`" class="`)
		buf.WriteString(templ.EscapeString(cx(
			"px-1.5 rounded-md opacity-70",
			TagColorClasses(t.Color),
			flag(t.Name == p.Filter.Tag, "opacity-100 font-bold"),
		)))
		buf.WriteString(`">`)
		buf.WriteString(templ.EscapeString(t.Name))
		buf.WriteString(`</a>`)
	}
	buf.WriteString(`</div></div>`)

	buf.WriteString(`<form method="get" action="`)
	buf.WriteString(templ.EscapeString(base))
	buf.WriteString(`" class="self-center flex min-w-[180px] rounded-md shadow-md sm:order-1">`)
	buf.WriteString(`<input class="input input-sm w-full bg-transparent" type="text" name="q" placeholder="Article Title Search" value="`)
	buf.WriteString(templ.EscapeString(p.Filter.Query))
	buf.WriteString(`"><button type="submit" class="btn btn-sm btn-ghost" aria-label="Search">⌕</button></form>`)
	buf.WriteString(`</aside></div>`)

	rows := FilterRows(p.Rows, p.Filter)
	buf.WriteString(`<div class="flex-auto flex flex-col px-3 gap-y-4 sm:p-0 sm:gap-y-3">`)
	if len(rows) == 0 {
		buf.WriteString(`<div>There are no posts.</div>`)
	}
	for i := range rows {
		writeArticleSummary(buf, site, &rows[i], opts)
	}
	buf.WriteString(`</div></div>`)
}

func writeArticleSummary(buf *bytes.Buffer, site SiteConfig, row *notion.Page, opts RenderOptions) {
	buf.WriteString(`<a class="notion-article-summary sm:transition-transform sm:hover:-translate-y-0.5" href="`)
	buf.WriteString(templ.EscapeString(ArticleHref(site, row)))
	buf.WriteString(`"><div class="w-full flex flex-col bg-base-content/5 shadow-md overflow-hidden rounded-md isolate sm:flex-row">`)
	buf.WriteString(`<div class="cover-image shrink-0 h-[200px] bg-base-content/5 overflow-hidden sm:w-[120px] md:w-[150px] lg:w-[200px] sm:h-[100px]">`)
	writeCover(buf, row.Cover, row.Icon, row.ID, opts)
	buf.WriteString(`</div><div class="flex-auto flex flex-col justify-between p-4 py-3 sm:py-2 break-all">`)
	if c := row.Category(); c != "" {
		buf.WriteString(`<div class="text-xs text-zinc-500 line-clamp-1">`)
		buf.WriteString(templ.EscapeString(c))
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`<div class="line-clamp-2">`)
	buf.WriteString(templ.EscapeString(row.Title()))
	buf.WriteString(`</div><div class="mt-2 sm:mt-auto flex items-end justify-between gap-x-2 text-sm"><div class="flex-1 line-clamp-1">`)
	for i, t := range row.Tags() {
		if i > 0 {
			buf.WriteString(" ")
		}
		writeOpen(buf, "span", cx("px-1.5 rounded-md text-opacity-80", TagColorClasses(t.Color)))
		buf.WriteString(templ.EscapeString(t.Name))
		buf.WriteString(`</span>`)
	}
	buf.WriteString(`</div><div>`)
	if p := row.Prop("publishedAt"); p != nil {
		if t, ok := p.Date.StartTime(); ok {
			buf.WriteString(`<div class="flex-auto grow-0 shrink-0 text-zinc-500">`)
			buf.WriteString(FormatDate(site, t))
			buf.WriteString(`</div>`)
		}
	}
	buf.WriteString(`</div></div></div></div></a>`)
}
