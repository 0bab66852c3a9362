package hits

import (
	"fmt"
	"html"
	"unicode/utf8"
)

const (
	charWidth = 7
	padding   = 10
)

// Badge draws a two-part flat badge: a gray label and a blue value.
func Badge(label, value string) string {
	lw := utf8.RuneCountInString(label)*charWidth + padding
	vw := utf8.RuneCountInString(value)*charWidth + padding
	label, value = html.EscapeString(label), html.EscapeString(value)
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="20" role="img" aria-label="%[4]s: %[5]s">`+
		`<title>%[4]s: %[5]s</title>`+
		`<rect width="%[2]d" height="20" fill="#555"/>`+
		`<rect x="%[2]d" width="%[3]d" height="20" fill="#4c8bf5"/>`+
		`<g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" font-size="11">`+
		`<text x="%[6]d" y="14">%[4]s</text><text x="%[7]d" y="14">%[5]s</text></g></svg>`,
		lw+vw, lw, vw, label, value, lw/2, lw+vw/2)
}
