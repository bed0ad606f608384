// Package commenttree turns the flat comment list returned by the backend into a
// forest of threaded replies, and holds the reply and edit state of a thread view.
package commenttree

import (
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

// MaxDepth is the nesting level from which the Reply action is no longer offered.
// Deeper replies are still rendered.
const MaxDepth = 5

// Node is a comment together with its direct replies in input order
type Node struct {
	models.Comment
	Replies []*Node `json:"replies"`
}

// Build links a flat comment list into its root nodes.
//
// The first pass indexes every comment by id, the second walks the input again and
// attaches each node to its parent, so the cost is linear whatever the shape of the
// thread. Siblings keep their input order. Comments whose parent is not in the list,
// or that name themselves as parent, are dropped. With duplicate ids the last
// record wins and the id is placed once.
func Build(flat []models.Comment) []*Node {
	index := make(map[models.ID]*Node, len(flat))
	for _, c := range flat {
		index[c.ID] = &Node{Comment: c, Replies: []*Node{}}
	}

	roots := []*Node{}
	placed := make(map[models.ID]bool, len(flat))
	for _, c := range flat {
		if placed[c.ID] {
			continue
		}
		placed[c.ID] = true

		node := index[c.ID]
		if node.IsRoot() {
			roots = append(roots, node)
			continue
		}

		parentID := *node.ParentID
		if parentID == node.ID {
			continue
		}
		parent, ok := index[parentID]
		if !ok {
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}

	return roots
}

// Walk visits nodes depth first, parents before replies. Roots have depth 0.
// Returning false from fn skips the replies of that node.
func Walk(roots []*Node, fn func(n *Node, depth int) bool) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				visit(n.Replies, depth+1)
			}
		}
	}
	visit(roots, 0)
}

// Count returns the number of comments reachable from roots
func Count(roots []*Node) int {
	total := 0
	Walk(roots, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Find returns the node with the given id and its depth
func Find(roots []*Node, id models.ID) (*Node, int, bool) {
	var (
		found *Node
		at    int
	)
	Walk(roots, func(n *Node, depth int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found, at = n, depth
			return false
		}
		return true
	})
	return found, at, found != nil
}

// CanReply reports whether a node at depth still offers the Reply action
func CanReply(depth int) bool {
	return depth < MaxDepth
}
