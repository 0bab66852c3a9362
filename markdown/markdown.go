// Package markdown exports a Notion block tree as CommonMark with the GitHub
// extensions for tables, task lists and strikethrough.
package markdown

import (
	"strconv"
	"strings"

	"github.com/eringen/notionpub/notion"
)

// MaxDepth bounds how deeply nested children are exported.
const MaxDepth = 8

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
)

// Page renders a page title followed by its content.
func Page(title string, tree *notion.Tree) string {
	body := Render(tree)
	if title == "" {
		title = "Untitled"
	}
	if body == "" {
		return "# " + escaper.Replace(title) + "\n"
	}
	return "# " + escaper.Replace(title) + "\n\n" + body
}

// Render converts a block tree to Markdown.
func Render(tree *notion.Tree) string {
	if tree == nil {
		return ""
	}
	e := &exporter{tree: tree}
	out := e.list(tree.Blocks.Results, 0)
	if out == "" {
		return ""
	}
	return out + "\n"
}

// RichText converts styled runs to inline Markdown.
func RichText(runs []notion.RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(formatRun(r))
	}
	return b.String()
}

func formatRun(r notion.RichText) string {
	if r.Type == "equation" && r.Equation != nil {
		return "$" + r.Equation.Expression + "$"
	}
	text := r.PlainText
	body := strings.TrimSpace(text)
	if body == "" {
		return text
	}
	// Markers must hug the text, so surrounding spaces stay outside them.
	lead := text[:strings.Index(text, body)]
	trail := text[len(lead)+len(body):]

	a := r.Annotations
	if a.Code {
		body = codeSpan(body)
	} else {
		body = escaper.Replace(body)
	}
	if a.Bold {
		body = "**" + body + "**"
	}
	if a.Italic {
		body = "_" + body + "_"
	}
	if a.Strikethrough {
		body = "~~" + body + "~~"
	}
	if r.Href != "" {
		body = "[" + body + "](" + linkDest(r.Href) + ")"
	}
	return lead + body + trail
}

// codeSpan fences s with one more backtick than its longest backtick run.
func codeSpan(s string) string {
	longest, run := 0, 0
	for _, c := range s {
		if c == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		s = " " + s + " "
	}
	return fence + s + fence
}

var destEscaper = strings.NewReplacer("<", "%3C", ">", "%3E", "\n", "%0A", "\r", "%0D")

// linkDest makes u safe as a link destination, using the angle bracket form
// when it holds spaces or parentheses.
func linkDest(u string) string {
	u = destEscaper.Replace(u)
	if strings.ContainsAny(u, " ()") {
		return "<" + u + ">"
	}
	return u
}

type exporter struct {
	tree *notion.Tree
}

func isListItem(typ string) bool {
	switch typ {
	case notion.TypeBulletedListItem, notion.TypeNumberedListItem, notion.TypeToDo, notion.TypeToggle:
		return true
	}
	return false
}

// list exports sibling blocks. Consecutive list items are kept tight; every
// other block is separated by a blank line.
func (e *exporter) list(blocks []notion.Block, depth int) string {
	var b strings.Builder
	prev := ""
	n := 0
	for i := range blocks {
		blk := &blocks[i]
		if blk.Type == notion.TypeNumberedListItem && prev == notion.TypeNumberedListItem {
			n++
		} else {
			n = 1
		}
		out := e.block(blk, n, depth)
		if out == "" {
			prev = ""
			continue
		}
		if b.Len() > 0 {
			if isListItem(prev) && isListItem(blk.Type) {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(out)
		prev = blk.Type
	}
	return b.String()
}

func (e *exporter) children(b *notion.Block, depth int) string {
	if !b.HasChildren || depth+1 >= MaxDepth {
		return ""
	}
	return e.list(e.tree.ChildrenOf(b.ID), depth+1)
}

// item writes a list marker followed by text, with children indented under it.
func (e *exporter) item(b *notion.Block, marker, text string, depth int) string {
	out := marker + text
	if kids := e.children(b, depth); kids != "" {
		out += "\n" + indent(kids, strings.Repeat(" ", len(marker)))
	}
	return out
}

// flow writes text followed by the block's children at the same level.
func (e *exporter) flow(b *notion.Block, text string, depth int) string {
	kids := e.children(b, depth)
	switch {
	case kids == "":
		return text
	case text == "":
		return kids
	}
	return text + "\n\n" + kids
}

func (e *exporter) block(b *notion.Block, n, depth int) string {
	switch b.Type {
	case notion.TypeParagraph:
		if b.Paragraph == nil {
			return ""
		}
		return e.flow(b, RichText(b.Paragraph.RichText), depth)

	case notion.TypeHeading1, notion.TypeHeading2, notion.TypeHeading3:
		t := b.Text()
		if t == nil {
			return ""
		}
		level := map[string]int{notion.TypeHeading1: 1, notion.TypeHeading2: 2, notion.TypeHeading3: 3}[b.Type]
		return e.flow(b, strings.Repeat("#", level)+" "+RichText(t.RichText), depth)

	case notion.TypeBulletedListItem:
		if b.BulletedListItem == nil {
			return ""
		}
		return e.item(b, "- ", RichText(b.BulletedListItem.RichText), depth)

	case notion.TypeNumberedListItem:
		if b.NumberedListItem == nil {
			return ""
		}
		return e.item(b, strconv.Itoa(n)+". ", RichText(b.NumberedListItem.RichText), depth)

	case notion.TypeToDo:
		if b.ToDo == nil {
			return ""
		}
		marker := "- [ ] "
		if b.ToDo.Checked {
			marker = "- [x] "
		}
		return e.item(b, marker, RichText(b.ToDo.RichText), depth)

	case notion.TypeToggle:
		if b.Toggle == nil {
			return ""
		}
		return e.item(b, "- ", RichText(b.Toggle.RichText), depth)

	case notion.TypeQuote:
		if b.Quote == nil {
			return ""
		}
		return quote(e.flow(b, RichText(b.Quote.RichText), depth))

	case notion.TypeCallout:
		if b.Callout == nil {
			return ""
		}
		text := RichText(b.Callout.RichText)
		if ic := b.Callout.Icon; ic != nil && ic.Type == "emoji" && ic.Emoji != "" {
			text = ic.Emoji + " " + text
		}
		return quote(e.flow(b, text, depth))

	case notion.TypeCode:
		if b.Code == nil {
			return ""
		}
		lang := b.Code.Language
		if lang == "plain text" {
			lang = ""
		}
		source := notion.PlainText(b.Code.RichText)
		fence := "```"
		for strings.Contains(source, fence) {
			fence += "`"
		}
		out := fence + lang + "\n" + source + "\n" + fence
		if c := RichText(b.Code.Caption); c != "" {
			out += "\n\n" + c
		}
		return out

	case notion.TypeDivider:
		return "---"

	case notion.TypeEquation:
		if b.Equation == nil {
			return ""
		}
		return "$$\n" + b.Equation.Expression + "\n$$"

	case notion.TypeImage:
		if b.Image == nil || b.Image.URL() == "" {
			return ""
		}
		alt := notion.PlainText(b.Image.Caption)
		return "![" + escaper.Replace(alt) + "](" + linkDest(b.Image.URL()) + ")"

	case notion.TypeVideo, notion.TypeFile, notion.TypePDF:
		f := b.Media()
		if f == nil || f.URL() == "" {
			return ""
		}
		label := notion.PlainText(f.Caption)
		if label == "" {
			label = f.Name
		}
		if label == "" {
			label = f.URL()
		}
		return "[" + escaper.Replace(label) + "](" + linkDest(f.URL()) + ")"

	case notion.TypeBookmark, notion.TypeLinkPreview, notion.TypeEmbed:
		var link *notion.LinkBlock
		switch b.Type {
		case notion.TypeBookmark:
			link = b.Bookmark
		case notion.TypeLinkPreview:
			link = b.LinkPreview
		default:
			link = b.Embed
		}
		if link == nil || link.URL == "" {
			return ""
		}
		label := RichText(link.Caption)
		if label == "" {
			label = escaper.Replace(link.URL)
		}
		return "[" + label + "](" + linkDest(link.URL) + ")"

	case notion.TypeTable:
		return e.table(b)

	case notion.TypeColumnList, notion.TypeColumn, notion.TypeSyncedBlock:
		return e.children(b, depth)

	case notion.TypeChildPage:
		if b.ChildPage == nil {
			return ""
		}
		title := b.ChildPage.Title
		if title == "" {
			title = "Untitled"
		}
		return "[" + escaper.Replace(title) + "](/" + notion.CompactID(b.ID) + ")"

	case notion.TypeChildDatabase:
		return e.database(b)
	}
	return ""
}

func (e *exporter) table(b *notion.Block) string {
	rows := e.tree.ChildrenOf(b.ID)
	if b.Table == nil || len(rows) == 0 {
		return ""
	}
	var lines []string
	for i, row := range rows {
		if row.TableRow == nil {
			continue
		}
		cells := make([]string, len(row.TableRow.Cells))
		for j, c := range row.TableRow.Cells {
			cells[j] = strings.ReplaceAll(RichText(c), "|", `\|`)
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return strings.Join(lines, "\n")
}

func (e *exporter) database(b *notion.Block) string {
	if b.ChildDatabase == nil {
		return ""
	}
	title := b.ChildDatabase.Title
	if title == "" {
		title = "Untitled"
	}
	lines := []string{"## " + escaper.Replace(title)}
	rows := e.tree.Databases[b.ID].Results
	if len(rows) > 0 {
		lines = append(lines, "")
	}
	for _, row := range rows {
		t := row.Title()
		if t == "" {
			t = "Untitled"
		}
		lines = append(lines, "- ["+escaper.Replace(t)+"](/"+notion.CompactID(row.ID)+")")
	}
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n")
}
