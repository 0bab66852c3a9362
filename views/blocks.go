package views

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/notionpub/notion"
)

// MaxDepth bounds how deeply nested children are rendered.
const MaxDepth = 8

var bulletGlyphs = []string{"•", "◦", "▪"}

// Blocks renders a page's block tree.
func Blocks(tree *notion.Tree, opts RenderOptions) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		if tree == nil {
			return nil
		}
		r := newRenderer(tree, opts)
		r.list(buf, tree.Blocks.Results, 0)
		return nil
	})
}

// component adapts a buffer-writing function into a templ.Component.
func component(fn func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fn(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

type renderer struct {
	tree *notion.Tree
	opts RenderOptions
}

func newRenderer(tree *notion.Tree, opts RenderOptions) *renderer {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Sort.Key == "" {
		opts.Sort = DefaultSort
	}
	return &renderer{tree: tree, opts: opts}
}

func (r *renderer) site() SiteConfig { return r.opts.Site }

// list renders sibling blocks. sameTag counts the preceding consecutive
// blocks of the same type and numbers list items.
func (r *renderer) list(buf *bytes.Buffer, blocks []notion.Block, depth int) {
	sameTag := 0
	for i := range blocks {
		if i > 0 && blocks[i-1].Type == blocks[i].Type {
			sameTag++
		} else {
			sameTag = 0
		}
		r.block(buf, &blocks[i], sameTag, depth)
	}
}

func (r *renderer) block(buf *bytes.Buffer, b *notion.Block, sameTag, depth int) {
	switch b.Type {
	case notion.TypeParagraph:
		if b.Paragraph == nil {
			return
		}
		r.wrap(buf, b, depth, func() {
			r.paragraph(buf, b.ID, b.Paragraph.RichText, b.Paragraph.Color)
		})

	case notion.TypeHeading1, notion.TypeHeading2, notion.TypeHeading3:
		r.heading(buf, b, depth)

	case notion.TypeBulletedListItem:
		if b.BulletedListItem == nil {
			return
		}
		r.wrap(buf, b, depth, func() {
			buf.WriteString(`<div class="flex"><div class="flex-initial text-2xl flex-center max-h-7 basis-6 shrink-0">`)
			buf.WriteString(bulletGlyphs[depth%len(bulletGlyphs)])
			buf.WriteString(`</div><div class="flex-auto">`)
			r.paragraph(buf, b.ID, b.BulletedListItem.RichText, b.BulletedListItem.Color)
			buf.WriteString(`</div></div>`)
		})

	case notion.TypeNumberedListItem:
		if b.NumberedListItem == nil {
			return
		}
		r.wrap(buf, b, depth, func() {
			buf.WriteString(`<div class="flex"><div class="flex-initial pt-0.5 basis-6 text-right">`)
			buf.WriteString(strconv.Itoa(sameTag + 1))
			buf.WriteString(`.</div><div class="flex-auto">`)
			r.paragraph(buf, b.ID, b.NumberedListItem.RichText, b.NumberedListItem.Color)
			buf.WriteString(`</div></div>`)
		})

	case notion.TypeToDo:
		if b.ToDo == nil {
			return
		}
		r.wrap(buf, b, depth, func() {
			buf.WriteString(`<div class="flex"><div class="flex-initial pt-1 pr-1 text-right basis-6">`)
			buf.WriteString(`<input type="checkbox" class="w-4 h-4 rounded-sm checkbox" disabled`)
			if b.ToDo.Checked {
				buf.WriteString(" checked")
			}
			buf.WriteString(`></div><div class="flex-auto">`)
			p := ParagraphProps{BlockID: b.ID, RichText: b.ToDo.RichText, Color: b.ToDo.Color}
			if b.ToDo.Checked {
				p.Annotations = &notion.Annotations{Color: notion.ColorGray, Strikethrough: true}
			}
			writeParagraph(buf, r.site(), p)
			buf.WriteString(`</div></div>`)
		})

	case notion.TypeToggle:
		if b.Toggle == nil {
			return
		}
		writeOpen(buf, "div", foregroundClass(b.Toggle.Color))
		buf.WriteString(`<details class="notion-toggle"><summary class="flex cursor-pointer marker"><div class="flex-auto">`)
		r.paragraph(buf, b.ID, b.Toggle.RichText, "")
		buf.WriteString(`</div></summary>`)
		r.wrap(buf, b, depth, nil)
		buf.WriteString(`</details></div>`)

	case notion.TypeQuote:
		if b.Quote == nil {
			return
		}
		buf.WriteString(`<div class="p-0.5 bg-notion-gray"><div class="py-1.5 px-3 border-l-[0.3125rem] border-solid border-base-content">`)
		r.wrap(buf, b, depth, func() {
			r.paragraph(buf, b.ID, b.Quote.RichText, b.Quote.Color)
		})
		buf.WriteString(`</div></div>`)

	case notion.TypeCallout:
		if b.Callout == nil {
			return
		}
		writeOpen(buf, "div", cx("py-1.5 pr-3 pl-1.5", colorClasses(b.Callout.Color)))
		r.wrap(buf, b, depth, func() {
			buf.WriteString(`<div class="flex"><div class="pt-0.5 basis-6 flex justify-center"><div class="text-xl leading-6 font-emoji">`)
			r.icon(buf, b.Callout.Icon, b.ID, "callout-icon")
			buf.WriteString(`</div></div>`)
			r.paragraph(buf, b.ID, b.Callout.RichText, "")
			buf.WriteString(`</div>`)
		})
		buf.WriteString(`</div>`)

	case notion.TypeCode:
		if b.Code == nil {
			return
		}
		r.wrap(buf, b, depth, func() {
			writeCode(buf, b.Code.Language, notion.PlainText(b.Code.RichText))
			r.caption(buf, b.ID, b.Code.Caption)
		})

	case notion.TypeDivider:
		r.wrap(buf, b, depth, func() {
			buf.WriteString(`<hr class="border-gray-500">`)
		})

	case notion.TypeImage:
		if b.Image == nil {
			return
		}
		r.wrap(buf, b, depth, func() { r.image(buf, b) })

	case notion.TypeVideo:
		if b.Video == nil {
			return
		}
		r.wrap(buf, b, depth, func() { r.video(buf, b) })

	case notion.TypeFile, notion.TypePDF:
		if b.Media() == nil {
			return
		}
		r.wrap(buf, b, depth, func() { r.file(buf, b) })

	case notion.TypeBookmark, notion.TypeLinkPreview:
		link := b.Bookmark
		if b.Type == notion.TypeLinkPreview {
			link = b.LinkPreview
		}
		if link == nil || link.URL == "" {
			buf.WriteString("<span></span>")
			return
		}
		r.wrap(buf, b, depth, func() {
			r.linkPreview(buf, link.URL)
			if b.Type == notion.TypeBookmark {
				r.caption(buf, b.ID, link.Caption)
			}
		})

	case notion.TypeEmbed:
		if b.Embed == nil || b.Embed.URL == "" {
			return
		}
		r.wrap(buf, b, depth, func() {
			r.embed(buf, b.Embed.URL)
			r.caption(buf, b.ID, b.Embed.Caption)
		})

	case notion.TypeEquation:
		if b.Equation == nil {
			return
		}
		r.wrap(buf, b, depth, func() {
			buf.WriteString(`<div class="notion-equation py-3 rounded-md text-lg">`)
			buf.WriteString(templ.EscapeString(b.Equation.Expression))
			buf.WriteString(`</div>`)
		})

	case notion.TypeTable:
		r.table(buf, b)

	case notion.TypeColumnList:
		r.columns(buf, b, depth)

	case notion.TypeColumn, notion.TypeSyncedBlock:
		r.wrap(buf, b, depth, nil)

	case notion.TypeChildDatabase:
		r.childDatabase(buf, b)

	case notion.TypeChildPage:
		if b.ChildPage == nil {
			return
		}
		title := b.ChildPage.Title
		buf.WriteString(`<div><a class="inline-flex items-center gap-x-1 py-1 underline" href="`)
		buf.WriteString(templ.EscapeString(PageHref(title, b.ID)))
		buf.WriteString(`"><span class="font-emoji" aria-hidden="true">📄</span>`)
		writeText(buf, TextStyle{}, first(title, "Untitled"))
		buf.WriteString(`</a></div>`)

	case notion.TypeTableOfContents:
		r.tableOfContents(buf)
	}
}

// wrap renders inner followed by the block's children, indented.
func (r *renderer) wrap(buf *bytes.Buffer, b *notion.Block, depth int, inner func()) {
	buf.WriteString("<div>")
	if inner != nil {
		inner()
	}
	r.children(buf, b, depth)
	buf.WriteString("</div>")
}

func (r *renderer) children(buf *bytes.Buffer, b *notion.Block, depth int) {
	if !b.HasChildren || depth+1 >= MaxDepth {
		return
	}
	kids := r.tree.ChildrenOf(b.ID)
	if len(kids) == 0 {
		return
	}
	buf.WriteString(`<div class="ml-6">`)
	r.list(buf, kids, depth+1)
	buf.WriteString(`</div>`)
}

func (r *renderer) paragraph(buf *bytes.Buffer, id string, text []notion.RichText, color notion.Color) {
	writeParagraph(buf, r.site(), ParagraphProps{BlockID: id, RichText: text, Color: color})
}

// caption renders a gray caption when present.
func (r *renderer) caption(buf *bytes.Buffer, id string, text []notion.RichText) {
	if len(text) == 0 {
		return
	}
	buf.WriteString(`<div class="w-full">`)
	r.paragraph(buf, id, text, notion.ColorGray)
	buf.WriteString(`</div>`)
}

func (r *renderer) heading(buf *bytes.Buffer, b *notion.Block, depth int) {
	t := b.Text()
	if t == nil {
		return
	}
	hash := HeadingHash(notion.PlainText(t.RichText), b.ID)
	size := map[string]string{
		notion.TypeHeading1: "text-[2em]",
		notion.TypeHeading2: "text-[1.5em]",
		notion.TypeHeading3: "text-[1.2em]",
	}[b.Type]

	write := func() {
		buf.WriteString(`<div id="`)
		buf.WriteString(templ.EscapeString(hash))
		buf.WriteString(`" class="pt-[2.1em] mb-1">`)
		writeOpen(buf, "div", cx("font-bold flex break-all leading-[1.2em]", size, "notion-heading-link-copy"))
		writeParagraph(buf, r.site(), ParagraphProps{
			BlockID:     b.ID,
			RichText:    t.RichText,
			Color:       t.Color,
			HeadingLink: "#" + hash,
		})
		buf.WriteString(`</div></div>`)
	}

	if t.IsToggleable {
		buf.WriteString(`<div><details class="notion-toggle"><summary class="cursor-pointer marker">`)
		write()
		buf.WriteString(`</summary>`)
		r.children(buf, b, depth)
		buf.WriteString(`</details></div>`)
		return
	}
	r.wrap(buf, b, depth, write)
}

func (r *renderer) table(buf *bytes.Buffer, b *notion.Block) {
	rows := r.tree.ChildrenOf(b.ID)
	if b.Table == nil || len(rows) == 0 {
		return
	}
	buf.WriteString("<div>")
	writeOpen(buf, "table", cx(
		"border-collapse",
		"[&>tbody>tr>td]:border [&>tbody>tr>td]:border-solid [&>tbody>tr>td]:border-notion-green",
		"[&>tbody>tr>td]:py-0.5 [&>tbody>tr>td]:px-1",
		flag(b.Table.HasRowHeader, "notion-table-row-header"),
		flag(b.Table.HasColumnHeader, "notion-table-column-header"),
	))
	buf.WriteString("<tbody>")
	for _, row := range rows {
		if row.TableRow == nil {
			continue
		}
		buf.WriteString("<tr>")
		for _, cell := range row.TableRow.Cells {
			buf.WriteString("<td>")
			if cell == nil {
				cell = []notion.RichText{}
			}
			r.paragraph(buf, row.ID, cell, "")
			buf.WriteString("</td>")
		}
		buf.WriteString("</tr>")
	}
	buf.WriteString("</tbody></table></div>")
}

func (r *renderer) columns(buf *bytes.Buffer, b *notion.Block, depth int) {
	cols := r.tree.ChildrenOf(b.ID)
	n := len(cols)
	if n == 0 {
		n = 1
	}
	buf.WriteString(`<div class="grid gap-x-2 [&>*]:overflow-x-auto" style="grid-template-columns: repeat(`)
	buf.WriteString(strconv.Itoa(n))
	buf.WriteString(`, 1fr)">`)
	for _, col := range cols {
		buf.WriteString(`<div class="mx-0.5">`)
		if depth+1 < MaxDepth {
			r.list(buf, r.tree.ChildrenOf(col.ID), depth+1)
		}
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</div>`)
}

// tableOfContents lists the page's top-level headings.
func (r *renderer) tableOfContents(buf *bytes.Buffer) {
	indent := map[string]string{
		notion.TypeHeading1: "",
		notion.TypeHeading2: "pl-4",
		notion.TypeHeading3: "pl-8",
	}
	buf.WriteString(`<nav class="notion-toc"><ul>`)
	for _, b := range r.tree.Blocks.Results {
		class, ok := indent[b.Type]
		t := b.Text()
		if !ok || t == nil {
			continue
		}
		text := notion.PlainText(t.RichText)
		writeOpen(buf, "li", class)
		buf.WriteString(`<a class="underline" href="#`)
		buf.WriteString(templ.EscapeString(HeadingHash(text, b.ID)))
		buf.WriteString(`">`)
		buf.WriteString(templ.EscapeString(text))
		buf.WriteString(`</a></li>`)
	}
	buf.WriteString(`</ul></nav>`)
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
