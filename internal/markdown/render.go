package markdown

import (
	"html"
	"net/url"
	"strings"
)

const lineBreak = "<br />"

var headingOpen = map[int]string{
	1: `<h1 class="text-2xl font-bold text-white mb-4">`,
	2: `<h2 class="text-xl font-semibold text-white mb-3">`,
	3: `<h3 class="text-lg font-semibold text-white mb-2">`,
}

var headingClose = map[int]string{
	1: "</h1>",
	2: "</h2>",
	3: "</h3>",
}

// RenderPreview parses source and renders it to an HTML fragment
func RenderPreview(source string) string {
	return Render(Parse(source))
}

// Render writes doc as an HTML fragment, one block per source line with explicit
// line breaks between them. All text and attribute values are escaped.
func Render(doc Document) string {
	var b strings.Builder
	for i, block := range doc.Blocks {
		if i > 0 {
			b.WriteString(lineBreak)
		}
		renderBlock(&b, block)
	}
	return b.String()
}

func renderBlock(b *strings.Builder, block Block) {
	switch block.Kind {
	case Heading:
		b.WriteString(headingOpen[block.Level])
		renderInlines(b, block.Inlines)
		b.WriteString(headingClose[block.Level])
	case Quote:
		b.WriteString(`<blockquote class="border-l-4 border-blue-500 pl-4 italic text-gray-300 my-2">`)
		renderInlines(b, block.Inlines)
		b.WriteString("</blockquote>")
	case BulletItem:
		b.WriteString(`<li class="ml-4">• `)
		renderInlines(b, block.Inlines)
		b.WriteString("</li>")
	case OrderedItem:
		b.WriteString(`<li class="ml-4">`)
		renderInlines(b, block.Inlines)
		b.WriteString("</li>")
	default:
		renderInlines(b, block.Inlines)
	}
}

func renderInlines(b *strings.Builder, nodes []Inline) {
	for _, n := range nodes {
		switch n.Kind {
		case Strong:
			b.WriteString(`<strong class="font-bold">`)
			renderInlines(b, n.Children)
			b.WriteString("</strong>")
		case Emphasis:
			b.WriteString(`<em class="italic">`)
			renderInlines(b, n.Children)
			b.WriteString("</em>")
		case Link:
			b.WriteString(`<a href="`)
			b.WriteString(html.EscapeString(SafeURL(n.URL)))
			b.WriteString(`" class="text-blue-400 hover:text-blue-300 underline" target="_blank" rel="noopener noreferrer">`)
			renderInlines(b, n.Children)
			b.WriteString("</a>")
		case Image:
			b.WriteString(`<img src="`)
			b.WriteString(html.EscapeString(SafeURL(n.URL)))
			b.WriteString(`" alt="`)
			b.WriteString(html.EscapeString(n.Text))
			b.WriteString(`" class="max-w-full h-auto rounded-lg my-4" />`)
		case Code:
			b.WriteString(`<code class="bg-gray-700 text-blue-300 px-2 py-1 rounded text-sm">`)
			renderInlines(b, n.Children)
			b.WriteString("</code>")
		default:
			b.WriteString(html.EscapeString(n.Text))
		}
	}
}

// SafeURL returns raw when it is a relative reference or uses the http, https or
// mailto scheme, and "#" otherwise
func SafeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "#"
	}
	switch u.Scheme {
	case "", "http", "https", "mailto":
		return strings.TrimSpace(raw)
	default:
		return "#"
	}
}
