package markdown

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const (
	h1     = `<h1 class="text-2xl font-bold text-white mb-4">`
	h2     = `<h2 class="text-xl font-semibold text-white mb-3">`
	h3     = `<h3 class="text-lg font-semibold text-white mb-2">`
	strong = `<strong class="font-bold">`
	em     = `<em class="italic">`
	code   = `<code class="bg-gray-700 text-blue-300 px-2 py-1 rounded text-sm">`
	quote  = `<blockquote class="border-l-4 border-blue-500 pl-4 italic text-gray-300 my-2">`
	li     = `<li class="ml-4">`
	aAttrs = `class="text-blue-400 hover:text-blue-300 underline" target="_blank" rel="noopener noreferrer"`
	imgCls = `class="max-w-full h-auto rounded-lg my-4"`
)

func TestRenderPreview(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"empty", "", ""},
		{"bold and italic", "**bold** and *italic*", strong + "bold</strong> and " + em + "italic</em>"},
		{"heading then body", "# Title\nBody", h1 + "Title</h1><br />Body"},
		{"heading levels", "## Sub\n### Small", h2 + "Sub</h2><br />" + h3 + "Small</h3>"},
		{"heading needs a space", "#Title", "#Title"},
		{"four hashes are text", "#### x", "#### x"},
		{"blockquote", "> quoted", quote + "quoted</blockquote>"},
		{"bullet item", "- item", li + "• item</li>"},
		{"ordered item", "12. item", li + "item</li>"},
		{"ordered needs a space", "1.item", "1.item"},
		{"code", "use `go test` now", "use " + code + "go test</code> now"},
		{"code does not span lines", "`a\nb`", "`a<br />b`"},
		{"link does not span lines", "[a\nb](/c)", "[a<br />b](/c)"},
		{"bold does not span lines", "**a\nb**", "**a<br />b**"},
		{"crlf line endings", "a\r\nb", "a<br />b"},
		{"trailing newline", "a\n", "a<br />"},
		{"unmatched bold", "**bold", "**bold"},
		{"lone star", "a * b", "a * b"},
		{"empty markers stay literal", "****", "****"},
		{"italic inside a word", "2*3*4", "2" + em + "3</em>4"},
		{"italic inside bold", "**a *b* c**", strong + "a " + em + "b</em> c</strong>"},
		{"bold inside italic", "*a **b** c*", em + "a " + strong + "b</strong> c</em>"},
		{"inline in heading", "## **Big** news", h2 + strong + "Big</strong> news</h2>"},
		{"inline in ordered item", "1. **a**", li + strong + "a</strong></li>"},
		{"quote wins over list", "> - x", quote + "- x</blockquote>"},
		{
			"link",
			"[site](https://example.com)",
			`<a href="https://example.com" ` + aAttrs + `>site</a>`,
		},
		{
			"link with bold label",
			"[**b**](http://x)",
			`<a href="http://x" ` + aAttrs + `>` + strong + "b</strong></a>",
		},
		{
			"bracket not followed by target",
			"see [a] and [b](/p)",
			`see [a] and <a href="/p" ` + aAttrs + `>b</a>`,
		},
		{
			"image",
			"![logo](/img/logo.png)",
			`<img src="/img/logo.png" alt="logo" ` + imgCls + ` />`,
		},
		{
			"image with empty alt",
			"![](/a.png)",
			`<img src="/a.png" alt="" ` + imgCls + ` />`,
		},
		{
			"image next to link",
			"![a](/i.png) and [b](/l)",
			`<img src="/i.png" alt="a" ` + imgCls + ` /> and <a href="/l" ` + aAttrs + `>b</a>`,
		},
		{
			"image alt is plain text",
			"![**big** logo](/l.png)",
			`<img src="/l.png" alt="big logo" ` + imgCls + ` />`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderPreview(tt.source); got != tt.want {
				t.Errorf("RenderPreview(%q)\n got: %s\nwant: %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestRenderPreview_Escaping(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			"script tag",
			`<script>alert("x")</script>`,
			`&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;`,
		},
		{
			"markup inside bold",
			"**<img src=x onerror=y>**",
			strong + "&lt;img src=x onerror=y&gt;</strong>",
		},
		{
			"link label",
			"[<b>](/x)",
			`<a href="/x" ` + aAttrs + `>&lt;b&gt;</a>`,
		},
		{
			"javascript link",
			"[x](javascript:alert(1))",
			`<a href="#" ` + aAttrs + `>x</a>)`,
		},
		{
			"ampersand",
			"Tom & Jerry",
			"Tom &amp; Jerry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderPreview(tt.source); got != tt.want {
				t.Errorf("RenderPreview(%q)\n got: %s\nwant: %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestRenderPreview_AttributeBreakout(t *testing.T) {
	got := RenderPreview(`[x](/a"onmouseover="y)`)
	if strings.Contains(got, `"onmouseover`) {
		t.Errorf("Expected quote in target to be escaped, got %s", got)
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/a?b=c", "https://example.com/a?b=c"},
		{"http://example.com", "http://example.com"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"/posts/1", "/posts/1"},
		{"images/cat.png", "images/cat.png"},
		{"  https://example.com  ", "https://example.com"},
		{"javascript:alert(1)", "#"},
		{"JavaScript:alert(1)", "#"},
		{"data:text/html;base64,PHNjcmlwdD4=", "#"},
		{"ftp://example.com", "#"},
		{"http://[::1", "#"},
	}

	for _, tt := range tests {
		if got := SafeURL(tt.raw); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	got := Parse("- **a** [b](/c)\n## t")
	want := Document{Blocks: []Block{
		{
			Kind: BulletItem,
			Inlines: []Inline{
				{Kind: Strong, Children: []Inline{{Kind: Text, Text: "a"}}},
				{Kind: Text, Text: " "},
				{Kind: Link, URL: "/c", Children: []Inline{{Kind: Text, Text: "b"}}},
			},
		},
		{
			Kind:    Heading,
			Level:   2,
			Inlines: []Inline{{Kind: Text, Text: "t"}},
		},
	}}

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_OneBlockPerLine(t *testing.T) {
	source := "# a\n\n> b\n- c\n1. d\ne"
	doc := Parse(source)
	if got, want := len(doc.Blocks), strings.Count(source, "\n")+1; got != want {
		t.Fatalf("Expected %d blocks, got %d", want, got)
	}

	kinds := []BlockKind{Heading, Paragraph, Quote, BulletItem, OrderedItem, Paragraph}
	for i, k := range kinds {
		if doc.Blocks[i].Kind != k {
			t.Errorf("Block %d: expected kind %d, got %d", i, k, doc.Blocks[i].Kind)
		}
	}
}

func BenchmarkRenderPreview(b *testing.B) {
	line := "## Heading with **bold**, *italic*, `code` and a [link](https://example.com)\n" +
		"> a quote ![img](/i.png)\n- item one\n1. item two\nplain <text> & more\n"
	source := strings.Repeat(line, 200)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		RenderPreview(source)
	}
}
