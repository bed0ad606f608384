package commenttree

import (
	"strings"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

// ReplyTarget is the comment a new submission will be nested under.
// A nil CommentID is the idle state.
type ReplyTarget struct {
	CommentID *models.ID `json:"commentId,omitempty"`
}

// Reply targets id, replacing any previous target
func (r *ReplyTarget) Reply(id models.ID) {
	if id.IsZero() {
		return
	}
	r.CommentID = &id
}

// Cancel returns to idle
func (r *ReplyTarget) Cancel() {
	r.CommentID = nil
}

// Replying reports whether a target is set
func (r ReplyTarget) Replying() bool {
	return r.CommentID != nil
}

// ParentID returns the parent id to send with a new comment, or nil
func (r ReplyTarget) ParentID() *models.ID {
	if r.CommentID == nil {
		return nil
	}
	id := *r.CommentID
	return &id
}

// Submitted records the outcome of a submission. Only a success clears the target.
func (r *ReplyTarget) Submitted(ok bool) {
	if ok {
		r.Cancel()
	}
}

// EditState is the edit-in-place state of a single comment
type EditState struct {
	Editing  bool   `json:"editing"`
	Original string `json:"original,omitempty"`
	Draft    string `json:"draft,omitempty"`
}

// Begin enters editing with the current content as draft. Only the author of the
// comment may edit it; for anyone else this is a no-op that returns false.
func (e *EditState) Begin(actor string, c *models.Comment) bool {
	if !c.AuthoredBy(actor) {
		return false
	}
	if e.Editing {
		return true
	}
	*e = EditState{Editing: true, Original: c.Content, Draft: c.Content}
	return true
}

// SetDraft replaces the draft while editing
func (e *EditState) SetDraft(draft string) {
	if e.Editing {
		e.Draft = draft
	}
}

// Cancel discards the draft and leaves editing
func (e *EditState) Cancel() {
	*e = EditState{}
}

// Save returns the draft to submit. The draft is submitted, and editing ends, only
// when it is non-blank and differs from the original; otherwise nothing changes.
func (e *EditState) Save() (string, bool) {
	if !e.Editing {
		return "", false
	}
	if strings.TrimSpace(e.Draft) == "" || e.Draft == e.Original {
		return "", false
	}
	draft := e.Draft
	*e = EditState{}
	return draft, true
}

// ThreadState is one viewer's UI state for the comments of one post
type ThreadState struct {
	Reply ReplyTarget              `json:"reply"`
	Edits map[models.ID]*EditState `json:"edits,omitempty"`
}

// Edit returns the edit state of a comment, creating it on first use
func (t *ThreadState) Edit(id models.ID) *EditState {
	if t.Edits == nil {
		t.Edits = make(map[models.ID]*EditState)
	}
	e, ok := t.Edits[id]
	if !ok {
		e = &EditState{}
		t.Edits[id] = e
	}
	return e
}

// Editing returns the edit state of a comment that is being edited
func (t *ThreadState) Editing(id models.ID) (*EditState, bool) {
	e, ok := t.Edits[id]
	if !ok || !e.Editing {
		return nil, false
	}
	return e, true
}

// Prune forgets edit state of comments no longer in the tree, and of comments that
// are back to viewing. A reply target that is no longer in the tree is cancelled.
func (t *ThreadState) Prune(roots []*Node) {
	if len(t.Edits) == 0 && !t.Reply.Replying() {
		return
	}
	present := make(map[models.ID]bool, len(t.Edits)+1)
	Walk(roots, func(n *Node, _ int) bool {
		present[n.ID] = true
		return true
	})
	if t.Reply.Replying() && !present[*t.Reply.CommentID] {
		t.Reply.Cancel()
	}
	for id, e := range t.Edits {
		if !present[id] || !e.Editing {
			delete(t.Edits, id)
		}
	}
}

// Empty reports whether the state carries nothing worth keeping
func (t *ThreadState) Empty() bool {
	return !t.Reply.Replying() && len(t.Edits) == 0
}
