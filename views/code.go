package views

import (
	"bytes"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var (
	codeFormatter = chromahtml.New(chromahtml.TabWidth(4), chromahtml.WrapLongLines(true))
	codeStyle     = styles.Get("monokai")
)

// writeCode writes a highlighted listing. Notion language names such as
// "plain text" that no lexer knows fall back to unhighlighted text.
func writeCode(buf *bytes.Buffer, language, source string) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	buf.WriteString(`<div class="notion-code rounded-md overflow-x-auto text-sm" data-language="`)
	buf.WriteString(templ.EscapeString(language))
	buf.WriteString(`">`)
	it, err := lexer.Tokenise(nil, source)
	if err == nil {
		var out bytes.Buffer
		if err = codeFormatter.Format(&out, codeStyle, it); err == nil {
			buf.Write(out.Bytes())
			buf.WriteString(`</div>`)
			return
		}
	}
	buf.WriteString(`<pre><code>`)
	buf.WriteString(templ.EscapeString(source))
	buf.WriteString(`</code></pre></div>`)
}
