package markdown

import (
	"strings"
	"unicode"
)

const ellipsis = "..."

// PlainText returns the text content of source with markup removed and whitespace
// collapsed. When limit is positive the result is cut to at most limit runes,
// at a word boundary where possible, and marked with an ellipsis.
func PlainText(source string, limit int) string {
	doc := Parse(source)

	parts := make([]string, 0, len(doc.Blocks))
	for _, block := range doc.Blocks {
		if s := flatten(withoutImages(block.Inlines)); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")

	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	if !unicode.IsSpace(runes[limit]) {
		if i := lastSpace(cut); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + ellipsis
}

func withoutImages(nodes []Inline) []Inline {
	out := make([]Inline, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == Image {
			continue
		}
		if len(n.Children) > 0 {
			n.Children = withoutImages(n.Children)
		}
		out = append(out, n)
	}
	return out
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}
