package views

import (
	"strings"

	"github.com/eringen/notionpub/notion"
)

var notionColorClasses = map[notion.Color]string{
	"default":           "text-notion-default",
	"gray":              "text-notion-gray",
	"brown":             "text-notion-brown",
	"orange":            "text-notion-orange",
	"yellow":            "text-notion-yellow",
	"green":             "text-notion-green",
	"blue":              "text-notion-blue",
	"purple":            "text-notion-purple",
	"pink":              "text-notion-pink",
	"red":               "text-notion-red",
	"gray_background":   "bg-notion-gray",
	"brown_background":  "bg-notion-brown",
	"orange_background": "bg-notion-orange",
	"yellow_background": "bg-notion-yellow",
	"green_background":  "bg-notion-green",
	"blue_background":   "bg-notion-blue",
	"purple_background": "bg-notion-purple",
	"pink_background":   "bg-notion-pink",
	"red_background":    "bg-notion-red",
	"code":              "text-notion-code",
	"code_background":   "bg-notion-code",
}

var notionTagColorClasses = map[notion.Color]string{
	"default":            "text-notion-tag-default",
	"gray":               "text-notion-tag-gray",
	"brown":              "text-notion-tag-brown",
	"orange":             "text-notion-tag-orange",
	"yellow":             "text-notion-tag-yellow",
	"green":              "text-notion-tag-green",
	"blue":               "text-notion-tag-blue",
	"purple":             "text-notion-tag-purple",
	"pink":               "text-notion-tag-pink",
	"red":                "text-notion-tag-red",
	"default_background": "bg-notion-tag-default",
	"gray_background":    "bg-notion-tag-gray",
	"brown_background":   "bg-notion-tag-brown",
	"orange_background":  "bg-notion-tag-orange",
	"yellow_background":  "bg-notion-tag-yellow",
	"green_background":   "bg-notion-tag-green",
	"blue_background":    "bg-notion-tag-blue",
	"purple_background":  "bg-notion-tag-purple",
	"pink_background":    "bg-notion-tag-pink",
	"red_background":     "bg-notion-tag-red",
}

// NotionColorClass maps a text or background color to its CSS class.
func NotionColorClass(c notion.Color) string {
	return notionColorClasses[c]
}

// TagColorClasses returns the foreground and background classes of a select
// option pill.
func TagColorClasses(c notion.Color) string {
	if c == "" {
		c = notion.ColorDefault
	}
	return cx(notionTagColorClasses[c], notionTagColorClasses[c+"_background"])
}

// foregroundClass is the class of a non-default, non-background color.
func foregroundClass(c notion.Color) string {
	if c == "" || c == notion.ColorDefault || c.IsBackground() {
		return ""
	}
	return notionColorClasses[c]
}

func backgroundClass(c notion.Color) string {
	if !c.IsBackground() {
		return ""
	}
	return notionColorClasses[c]
}

// colorClasses is the class of any color: text colors except default, and
// background colors.
func colorClasses(c notion.Color) string {
	return cx(foregroundClass(c), backgroundClass(c))
}

// cx joins the non-empty class names.
func cx(classes ...string) string {
	var b strings.Builder
	for _, c := range classes {
		if c == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c)
	}
	return b.String()
}
