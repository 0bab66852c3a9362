package views

import (
	"bytes"
	"context"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/notionpub/notion"
)

// PageHeader renders the cover, icon, title, author line and tags of a page
// or database.
func PageHeader(site SiteConfig, obj notion.Object, author *notion.User, now time.Time) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		writePageHeader(buf, site, obj, author, now)
		return nil
	})
}

func writePageHeader(buf *bytes.Buffer, site SiteConfig, obj notion.Object, author *notion.User, now time.Time) {
	id := obj.ID()
	cover := obj.Cover()
	icon := obj.Icon()
	title := obj.Title()

	var created, edited time.Time
	var tags []notion.SelectOption
	switch {
	case obj.Page != nil:
		created, edited = obj.Page.CreatedTime, obj.Page.LastEditedTime
		tags = obj.Page.Tags()
	case obj.Database != nil:
		created, edited = obj.Database.CreatedTime, obj.Database.LastEditedTime
	}

	buf.WriteString("<div>")
	if cover != nil && cover.URL() != "" {
		buf.WriteString(`<div class="relative h-[25vh] shadow-lg overflow-hidden pointer-events-none md:h-[30vh] lg:shadow-xl">`)
		writeImg(buf, ImageSrc(cover, id, "block", 1600, now), "page-cover", "w-full h-full object-cover")
		buf.WriteString(`</div>`)
	}

	offset := "mt-[50px]"
	if cover != nil {
		offset = ""
		if icon != nil && (icon.Type == "emoji" || icon.Type == "file") {
			offset = "mt-[-50px]"
		}
	}
	writeOpen(buf, "div", cx(
		"relative max-w-screen-lg mx-auto px-4 sm:px-6 lg:px-10",
		offset,
		flag(cover == nil && icon != nil && icon.Type == "file", "pt-[20px]"),
	))

	if icon != nil {
		switch icon.Type {
		case "emoji":
			buf.WriteString(`<span class="px-3 text-[100px] leading-none font-emoji">`)
			buf.WriteString(templ.EscapeString(icon.Emoji))
			buf.WriteString(`</span>`)
		case "file", "external":
			buf.WriteString(`<div class="w-[100px] h-[100px] rounded-md overflow-hidden">`)
			f := &notion.FileObject{Type: icon.Type, File: icon.File, External: icon.External}
			writeImg(buf, ImageSrc(f, id, "block", 200, now), "page-icon", "w-full h-full")
			buf.WriteString(`</div>`)
		}
	}

	href := PageHref(title, id)
	buf.WriteString(`<div class="mt-[20px] mb-3 text-[40px] font-bold"><h1 class="font-bold flex break-all leading-[1.2em] notion-heading-link-copy">`)
	writeText(buf, TextStyle{}, first(title, "Untitled"))
	buf.WriteString(`<span class="heading-link"><a href="`)
	buf.WriteString(templ.EscapeString(href))
	buf.WriteString(`">&nbsp;🔗</a></span></h1></div>`)

	buf.WriteString(`<div class="text-zinc-500 leading-none">`)
	if author != nil {
		switch {
		case author.AvatarURL != "":
			buf.WriteString(`<span class="avatar leading-none align-bottom">`)
			writeImg(buf, author.AvatarURL, first(author.Name, "author")+"-avatar", "inline w-[1.2em] h-[1.2em] rounded-full")
			buf.WriteString(`</span>`)
		case author.Name != "":
			buf.WriteString(`<span class="avatar placeholder rounded-full">`)
			buf.WriteString(templ.EscapeString(string([]rune(author.Name)[:1])))
			buf.WriteString(`</span>`)
		}
		if author.Name != "" {
			buf.WriteString(`<span class="ml-0.5">`)
			buf.WriteString(templ.EscapeString(author.Name))
			buf.WriteString(`</span>`)
		}
	}
	if !created.IsZero() {
		buf.WriteString(`<span> | <time datetime="`)
		buf.WriteString(created.UTC().Format(time.RFC3339))
		buf.WriteString(`">`)
		buf.WriteString(FormatDate(site, created))
		buf.WriteString(`</time></span>`)
	}
	if !edited.IsZero() && edited.Sub(created) > time.Minute {
		buf.WriteString(`<span> | edited `)
		buf.WriteString(templ.EscapeString(RelativeTime(edited, now)))
		buf.WriteString(`</span>`)
	}
	if len(tags) > 0 {
		buf.WriteString(`<span> | `)
		for _, t := range tags {
			buf.WriteString(`<span>#`)
			buf.WriteString(templ.EscapeString(t.Name))
			buf.WriteString(` </span>`)
		}
		buf.WriteString(`</span>`)
	}
	buf.WriteString(`</div></div></div>`)
}
