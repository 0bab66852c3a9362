package views

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/eringen/notionpub/notion"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("render: %v", err)
	}
	return sb.String()
}

func run(text string, a notion.Annotations) notion.RichText {
	return notion.RichText{
		Type:        "text",
		Text:        &notion.Text{Content: text},
		Annotations: a,
		PlainText:   text,
	}
}

func TestTextStyleClasses(t *testing.T) {
	tests := []struct {
		name  string
		style TextStyle
		want  string
	}{
		{"plain", TextStyle{}, ""},
		{"bold red", TextStyle{Bold: true, Color: notion.ColorRed}, "font-bold text-notion-red"},
		{"all flags", TextStyle{Bold: true, Italic: true, Strikethrough: true, Underline: true}, "font-bold italic line-through underline"},
		{"default color ignored", TextStyle{Color: notion.ColorDefault}, ""},
		{"background", TextStyle{Color: "blue_background"}, "bg-notion-blue"},
		{"code gets code colors", TextStyle{Code: CodeOnce}, codeClasses[CodeOnce] + " text-notion-code bg-notion-code"},
		{"code keeps own color", TextStyle{Code: CodeFirst, Color: notion.ColorGreen}, codeClasses[CodeFirst] + " bg-notion-code text-notion-green"},
		{"code keeps own background", TextStyle{Code: CodeLast, Color: "red_background"}, codeClasses[CodeLast] + " text-notion-code bg-notion-red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.style.Classes(); got != tt.want {
				t.Errorf("Classes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParagraphBoldAndColor(t *testing.T) {
	out := render(t, Paragraph(SiteConfig{}, ParagraphProps{
		BlockID:  "b1",
		RichText: []notion.RichText{run("hello", notion.Annotations{Bold: true, Color: notion.ColorRed})},
	}))
	want := `<div class="break-all"><span class="font-bold text-notion-red">hello</span></div>`
	if out != want {
		t.Fatalf("got %s\nwant %s", out, want)
	}
}

func TestParagraphNilRendersNothing(t *testing.T) {
	if out := render(t, Paragraph(SiteConfig{}, ParagraphProps{BlockID: "b1"})); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestParagraphEmptyRendersWrapper(t *testing.T) {
	out := render(t, Paragraph(SiteConfig{}, ParagraphProps{RichText: []notion.RichText{}, Color: "yellow_background"}))
	if out != `<div class="break-all bg-notion-yellow"></div>` {
		t.Fatalf("got %s", out)
	}
}

func TestParagraphCodePositions(t *testing.T) {
	code := notion.Annotations{Code: true}
	out := render(t, Paragraph(SiteConfig{}, ParagraphProps{RichText: []notion.RichText{
		run("a", code), run("b", code), run("c", code), run(" x ", notion.Annotations{}), run("d", code),
	}}))
	order := []string{
		`<span class="` + codeClasses[CodeFirst] + ` text-notion-code bg-notion-code">a</span>`,
		`<span class="` + codeClasses[CodeMiddle] + ` text-notion-code bg-notion-code">b</span>`,
		`<span class="` + codeClasses[CodeLast] + ` text-notion-code bg-notion-code">c</span>`,
		`<span> x </span>`,
		`<span class="` + codeClasses[CodeOnce] + ` text-notion-code bg-notion-code">d</span>`,
	}
	pos := 0
	for _, want := range order {
		i := strings.Index(out[pos:], want)
		if i < 0 {
			t.Fatalf("missing %s after offset %d in %s", want, pos, out)
		}
		pos += i + len(want)
	}
}

func TestParagraphOverrideMergesFlags(t *testing.T) {
	out := render(t, Paragraph(SiteConfig{}, ParagraphProps{
		RichText:    []notion.RichText{run("done", notion.Annotations{Italic: true})},
		Annotations: &notion.Annotations{Color: notion.ColorGray, Strikethrough: true},
	}))
	if !strings.Contains(out, `<div class="break-all text-notion-gray">`) {
		t.Errorf("override color should gray the wrapper: %s", out)
	}
	if !strings.Contains(out, `<span class="italic line-through">done</span>`) {
		t.Errorf("flags not merged: %s", out)
	}
}

func TestParagraphLinks(t *testing.T) {
	links, err := NewURLRewriter("blog.example.com", "", "")
	if err != nil {
		t.Fatalf("NewURLRewriter: %v", err)
	}
	site := SiteConfig{Links: links}

	link := run("docs", notion.Annotations{})
	link.Href = "https://www.notion.so/acme/Hello-0123456789abcdef0123456789abcdef"
	mention := notion.RichText{Type: "mention", PlainText: "Other", Href: "https://example.com/x"}
	unsafe := run("bad", notion.Annotations{})
	unsafe.Href = "javascript:alert(1)"

	out := render(t, Paragraph(site, ParagraphProps{RichText: []notion.RichText{link, mention, unsafe}}))

	if !strings.Contains(out, `href="/Hello-0123456789abcdef0123456789abcdef"`) {
		t.Errorf("notion link not rewritten: %s", out)
	}
	if !strings.Contains(out, `<span class="underline">docs</span>`) {
		t.Errorf("link text should be underlined: %s", out)
	}
	if !strings.Contains(out, `href="https://example.com/x"`) || !strings.Contains(out, "↗") {
		t.Errorf("mention not rendered as link: %s", out)
	}
	if strings.Contains(out, "javascript:") {
		t.Errorf("unsafe href leaked: %s", out)
	}
}

func TestParagraphHeadingLink(t *testing.T) {
	out := render(t, Paragraph(SiteConfig{}, ParagraphProps{
		RichText:    []notion.RichText{run("Title", notion.Annotations{})},
		HeadingLink: "#Title-abcd1234",
	}))
	if !strings.Contains(out, `<span class="heading-link"><a href="#Title-abcd1234">&nbsp;🔗</a></span>`) {
		t.Fatalf("heading link missing: %s", out)
	}
}

func TestParagraphEscapesText(t *testing.T) {
	out := render(t, Paragraph(SiteConfig{}, ParagraphProps{RichText: []notion.RichText{run("<b>x</b>", notion.Annotations{})}}))
	if strings.Contains(out, "<b>") {
		t.Fatalf("text not escaped: %s", out)
	}
}
