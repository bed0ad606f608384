// Package markdown renders the small markdown subset used in post and comment
// bodies. Source text is parsed into typed blocks and inline nodes first, and the
// renderer escapes every piece of text it writes, so raw HTML in the source is
// shown as text rather than interpreted.
package markdown

// BlockKind is the kind of a source line
type BlockKind uint8

const (
	Paragraph BlockKind = iota
	Heading
	Quote
	BulletItem
	OrderedItem
)

// InlineKind is the kind of an inline node
type InlineKind uint8

const (
	Text InlineKind = iota
	Strong
	Emphasis
	Link
	Image
	Code
)

// Document is a parsed source. Every source line becomes exactly one block.
type Document struct {
	Blocks []Block
}

// Block is a single line of source. Level is 1 to 3 for headings and 0 otherwise.
type Block struct {
	Kind    BlockKind
	Level   int
	Inlines []Inline
}

// Inline is a span within a block.
//
// Text nodes carry their content in Text. Images carry the alt text in Text and
// have no children. Links and images carry the raw target in URL.
type Inline struct {
	Kind     InlineKind
	Text     string
	URL      string
	Children []Inline
}

func (n Inline) isElement() bool {
	return n.Kind != Text
}
