package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/notionpub/notion"
)

// CodePosition places an inline code run among its code neighbours so that
// adjacent runs render as one pill.
type CodePosition int

const (
	CodeNone CodePosition = iota
	CodeOnce
	CodeFirst
	CodeMiddle
	CodeLast
)

var codeClasses = map[CodePosition]string{
	CodeOnce:   "py-[0.0625rem] px-1 font-mono rounded-l rounded-r",
	CodeFirst:  "py-[0.0625rem] pl-1 font-mono rounded-l",
	CodeMiddle: "py-[0.0625rem] font-mono",
	CodeLast:   "py-[0.0625rem] pr-1 font-mono rounded-r",
}

// TextStyle is the resolved style of one rich text run.
type TextStyle struct {
	Bold          bool
	Italic        bool
	Strikethrough bool
	Underline     bool
	Code          CodePosition
	Color         notion.Color
}

// Classes returns the span classes for s. Code runs get the code colors
// unless the run sets its own.
func (s TextStyle) Classes() string {
	fg := foregroundClass(s.Color)
	bg := backgroundClass(s.Color)
	var code, codeFg, codeBg string
	if s.Code != CodeNone {
		code = codeClasses[s.Code]
		if fg == "" {
			codeFg = notionColorClasses["code"]
		}
		if bg == "" {
			codeBg = notionColorClasses["code_background"]
		}
	}
	return cx(
		flag(s.Bold, "font-bold"),
		flag(s.Italic, "italic"),
		flag(s.Strikethrough, "line-through"),
		flag(s.Underline, "underline"),
		code, codeFg, codeBg, fg, bg,
	)
}

func flag(on bool, class string) string {
	if on {
		return class
	}
	return ""
}

// ParagraphText renders text in a styled span.
func ParagraphText(style TextStyle, text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		writeText(&buf, style, text)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writeText(buf *bytes.Buffer, style TextStyle, text string) {
	writeOpen(buf, "span", style.Classes())
	buf.WriteString(templ.EscapeString(text))
	buf.WriteString("</span>")
}

// ParagraphProps describes a rich text paragraph. Annotations, when set, are
// merged into every run, e.g. the strikethrough of a checked to-do.
type ParagraphProps struct {
	BlockID     string
	RichText    []notion.RichText
	Color       notion.Color
	Annotations *notion.Annotations
	HeadingLink string
}

// Paragraph renders a rich text array. A nil array renders nothing.
func Paragraph(site SiteConfig, p ParagraphProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		writeParagraph(&buf, site, p)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writeParagraph(buf *bytes.Buffer, site SiteConfig, p ParagraphProps) {
	if p.RichText == nil {
		return
	}
	override := p.Annotations
	if override == nil {
		override = &notion.Annotations{}
	}

	wrapperColor := foregroundClass(p.Color)
	if wrapperColor == "" && override.Color != "" {
		wrapperColor = notionColorClasses[notion.ColorGray]
	}
	writeOpen(buf, "div", cx("break-all", wrapperColor, backgroundClass(p.Color)))

	runs := p.RichText
	for i, run := range runs {
		a := run.Annotations
		style := TextStyle{
			Bold:          override.Bold || a.Bold,
			Italic:        override.Italic || a.Italic,
			Strikethrough: override.Strikethrough || a.Strikethrough,
			Underline:     override.Underline || a.Underline,
			Color:         a.Color,
		}
		if a.Code {
			prev := i > 0 && runs[i-1].Annotations.Code
			next := i+1 < len(runs) && runs[i+1].Annotations.Code
			switch {
			case !prev && !next:
				style.Code = CodeOnce
			case !prev && next:
				style.Code = CodeFirst
			case next:
				style.Code = CodeMiddle
			default:
				style.Code = CodeLast
			}
		}

		switch {
		case run.Type == "mention":
			buf.WriteString(`<a class="inline-flex items-center bg-base-content/10 rounded-md px-1"`)
			writeHref(buf, site, run.Href)
			buf.WriteString(` rel="noreferrer" target="_blank">`)
			buf.WriteString(`<span aria-hidden="true">↗</span>`)
			style.Underline = true
			writeText(buf, style, run.PlainText)
			buf.WriteString("</a>")
		case run.Type == "equation" && run.Equation != nil:
			writeOpen(buf, "span", cx("notion-equation", style.Classes()))
			buf.WriteString(templ.EscapeString(run.Equation.Expression))
			buf.WriteString("</span>")
		case run.Href != "":
			buf.WriteString("<a")
			writeHref(buf, site, run.Href)
			buf.WriteString(` rel="noreferrer" target="_blank">`)
			style.Underline = true
			writeText(buf, style, run.PlainText)
			buf.WriteString("</a>")
		default:
			writeText(buf, style, run.PlainText)
		}
	}

	if p.HeadingLink != "" {
		buf.WriteString(`<span class="heading-link"><a href="`)
		buf.WriteString(templ.EscapeString(SafeURL(p.HeadingLink)))
		buf.WriteString(`">&nbsp;🔗</a></span>`)
	}
	buf.WriteString("</div>")
}

// writeHref writes an href attribute for a rewritten, safe link. Unsafe links
// produce no attribute.
func writeHref(buf *bytes.Buffer, site SiteConfig, href string) {
	u := SafeURL(RewriteNotionURL(site, href))
	if u == "" {
		return
	}
	buf.WriteString(` href="`)
	buf.WriteString(templ.EscapeString(u))
	buf.WriteString(`"`)
}

// writeOpen writes an opening tag with an optional class attribute.
func writeOpen(buf *bytes.Buffer, tag, class string) {
	buf.WriteString("<")
	buf.WriteString(tag)
	if class != "" {
		buf.WriteString(` class="`)
		buf.WriteString(templ.EscapeString(class))
		buf.WriteString(`"`)
	}
	buf.WriteString(">")
}
