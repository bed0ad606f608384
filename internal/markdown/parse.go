package markdown

import (
	"strings"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// blockPrefixes are tried in order; the first one a line starts with decides its kind
var blockPrefixes = []struct {
	prefix string
	kind   BlockKind
	level  int
}{
	{"### ", Heading, 3},
	{"## ", Heading, 2},
	{"# ", Heading, 1},
	{"> ", Quote, 0},
	{"- ", BulletItem, 0},
}

// inlinePasses run in this order over every block. Each pass sees the nodes the
// previous passes produced.
var inlinePasses = []func(level) []Inline{
	func(l level) []Inline { return l.delimit("**", Strong) },
	func(l level) []Inline { return l.delimit("*", Emphasis) },
	func(l level) []Inline { return l.bracket(Link) },
	func(l level) []Inline { return l.bracket(Image) },
	func(l level) []Inline { return l.delimit("`", Code) },
}

// Parse splits source into lines and parses each one. It never fails: anything
// that does not form a construct is kept as text.
func Parse(source string) Document {
	lines := strings.Split(lineEndings.Replace(source), "\n")

	doc := Document{Blocks: make([]Block, 0, len(lines))}
	for _, line := range lines {
		doc.Blocks = append(doc.Blocks, parseBlock(line))
	}
	return doc
}

func parseBlock(line string) Block {
	block := Block{Kind: Paragraph}
	rest := line

	matched := false
	for _, p := range blockPrefixes {
		if strings.HasPrefix(line, p.prefix) {
			block.Kind, block.Level = p.kind, p.level
			rest = line[len(p.prefix):]
			matched = true
			break
		}
	}
	if !matched {
		if n := orderedPrefix(line); n > 0 {
			block.Kind = OrderedItem
			rest = line[n:]
		}
	}

	block.Inlines = parseInline(rest)
	return block
}

// orderedPrefix returns the length of a leading "N. " marker, or 0
func orderedPrefix(line string) int {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || !strings.HasPrefix(line[i:], ". ") {
		return 0
	}
	return i + 2
}

func parseInline(s string) []Inline {
	nodes := appendText(nil, s)
	for _, pass := range inlinePasses {
		nodes = applyPass(nodes, pass)
	}
	return nodes
}

// applyPass runs pass inside existing elements first and then on the level
// itself, so elements created by the pass are not scanned again by it.
func applyPass(nodes []Inline, pass func(level) []Inline) []Inline {
	for i := range nodes {
		if len(nodes[i].Children) > 0 {
			nodes[i].Children = applyPass(nodes[i].Children, pass)
		}
	}
	return pass(level(nodes))
}

// level is a sequence of sibling nodes. Constructs may span sibling elements
// but never reach into or out of one.
type level []Inline

// pos is a position in a level: a node index and a byte offset inside a text node
type pos struct {
	i, off int
}

func (p pos) add(n int) pos {
	return pos{p.i, p.off + n}
}

func (l level) end() pos {
	return pos{len(l), 0}
}

// find returns the first occurrence of s inside a text node at or after p.
// Elements are stepped over when cross is set, and stop the search otherwise.
func (l level) find(p pos, s string, cross bool) (pos, bool) {
	for i := p.i; i < len(l); i++ {
		n := l[i]
		if n.isElement() {
			if !cross {
				return pos{}, false
			}
			continue
		}
		off := 0
		if i == p.i {
			off = p.off
		}
		if off > len(n.Text) {
			continue
		}
		if j := strings.Index(n.Text[off:], s); j >= 0 {
			return pos{i, off + j}, true
		}
	}
	return pos{}, false
}

// between returns the nodes from a up to but excluding b
func (l level) between(a, b pos) []Inline {
	var out []Inline
	for i := a.i; i <= b.i && i < len(l); i++ {
		n := l[i]
		if n.isElement() {
			if i < b.i {
				out = append(out, n)
			}
			continue
		}
		from, to := 0, len(n.Text)
		if i == a.i {
			from = a.off
		}
		if i == b.i {
			to = b.off
		}
		if from < to {
			out = appendText(out, n.Text[from:to])
		}
	}
	return out
}

// delimit wraps the shortest non-empty run enclosed by marker on both sides
func (l level) delimit(marker string, kind InlineKind) []Inline {
	var out []Inline
	emitted, from := pos{}, pos{}

	for {
		open, ok := l.find(from, marker, true)
		if !ok {
			break
		}
		inner := open.add(len(marker))
		closing, ok := l.find(inner, marker, true)
		if !ok {
			break
		}
		children := l.between(inner, closing)
		if len(children) == 0 {
			from = open.add(1)
			continue
		}

		out = appendNodes(out, l.between(emitted, open))
		out = append(out, Inline{Kind: kind, Children: children})
		emitted = closing.add(len(marker))
		from = emitted
	}

	return appendNodes(out, l.between(emitted, l.end()))
}

// bracket parses [text](url) links and ![alt](url) images. The label ends at the
// first "]" and must be followed directly by "(" and a target that sits in a
// single text node and ends at the first ")".
func (l level) bracket(kind InlineKind) []Inline {
	prefix := "["
	if kind == Image {
		prefix = "!["
	}

	var out []Inline
	emitted, from := pos{}, pos{}

	for {
		open, ok := l.find(from, prefix, true)
		if !ok {
			break
		}
		from = open.add(1)

		// image syntax is left for the image pass
		if kind == Link && open.off > 0 && l[open.i].Text[open.off-1] == '!' {
			continue
		}

		inner := open.add(len(prefix))
		closing, ok := l.find(inner, "]", true)
		if !ok {
			break
		}
		text := l[closing.i].Text
		if closing.off+1 >= len(text) || text[closing.off+1] != '(' {
			continue
		}
		target := text[closing.off+2:]
		j := strings.IndexByte(target, ')')
		if j <= 0 {
			continue
		}

		label := l.between(inner, closing)
		if kind == Link && len(label) == 0 {
			continue
		}

		node := Inline{Kind: kind, URL: target[:j]}
		if kind == Image {
			node.Text = flatten(label)
		} else {
			node.Children = label
		}

		out = appendNodes(out, l.between(emitted, open))
		out = append(out, node)
		emitted = pos{closing.i, closing.off + 2 + j + 1}
		from = emitted
	}

	return appendNodes(out, l.between(emitted, l.end()))
}

// appendText appends s as text, merging it into a trailing text node
func appendText(nodes []Inline, s string) []Inline {
	if s == "" {
		return nodes
	}
	if k := len(nodes) - 1; k >= 0 && !nodes[k].isElement() {
		nodes[k].Text += s
		return nodes
	}
	return append(nodes, Inline{Kind: Text, Text: s})
}

func appendNodes(nodes []Inline, more []Inline) []Inline {
	for _, n := range more {
		if n.isElement() {
			nodes = append(nodes, n)
		} else {
			nodes = appendText(nodes, n.Text)
		}
	}
	return nodes
}

// flatten returns the text content of nodes, using alt text for images
func flatten(nodes []Inline) string {
	var b strings.Builder
	var walk func([]Inline)
	walk = func(nodes []Inline) {
		for _, n := range nodes {
			if n.Kind == Text || n.Kind == Image {
				b.WriteString(n.Text)
				continue
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return b.String()
}
