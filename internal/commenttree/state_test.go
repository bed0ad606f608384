package commenttree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

func TestReplyTarget(t *testing.T) {
	a := assert.New(t)

	var r ReplyTarget
	a.False(r.Replying())
	a.Nil(r.ParentID())

	r.Reply("5")
	a.True(r.Replying())
	a.Equal(models.ID("5"), *r.ParentID())

	r.Reply("7")
	a.Equal(models.ID("7"), *r.ParentID(), "a new target replaces the old one")

	r.Reply("")
	a.Equal(models.ID("7"), *r.ParentID(), "an empty id is ignored")

	r.Cancel()
	a.False(r.Replying())
}

func TestReplyTarget_Submitted(t *testing.T) {
	a := assert.New(t)

	var r ReplyTarget
	r.Reply("5")

	parent := r.ParentID()
	a.Equal(models.ID("5"), *parent)

	r.Submitted(false)
	a.True(r.Replying(), "a failed submission keeps the target")

	r.Submitted(true)
	a.False(r.Replying())
	a.Equal(models.ID("5"), *parent, "the returned parent id is a copy")
}

func TestEditState_Begin(t *testing.T) {
	a := assert.New(t)
	c := &models.Comment{ID: "1", Content: "first", Author: models.Author{Username: "ada"}}

	var e EditState
	a.False(e.Begin("bob", c), "only the author may edit")
	a.False(e.Editing)

	a.False(e.Begin("", c))

	a.True(e.Begin("ada", c))
	a.True(e.Editing)
	a.Equal("first", e.Draft)

	e.SetDraft("changed")
	a.True(e.Begin("ada", c), "beginning again keeps the draft")
	a.Equal("changed", e.Draft)
}

func TestEditState_Save(t *testing.T) {
	c := &models.Comment{ID: "1", Content: "first", Author: models.Author{Username: "ada"}}

	tests := []struct {
		name        string
		draft       string
		wantSubmit  bool
		wantEditing bool
	}{
		{name: "changed draft is submitted", draft: "second", wantSubmit: true, wantEditing: false},
		{name: "unchanged draft stays in editing", draft: "first", wantSubmit: false, wantEditing: true},
		{name: "blank draft stays in editing", draft: "  \n\t", wantSubmit: false, wantEditing: true},
		{name: "empty draft stays in editing", draft: "", wantSubmit: false, wantEditing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)

			var e EditState
			a.True(e.Begin("ada", c))
			e.SetDraft(tt.draft)

			draft, ok := e.Save()
			a.Equal(tt.wantSubmit, ok)
			a.Equal(tt.wantEditing, e.Editing)
			if tt.wantSubmit {
				a.Equal(tt.draft, draft)
			} else {
				a.Empty(draft)
			}
		})
	}
}

func TestEditState_SaveWhenViewing(t *testing.T) {
	var e EditState
	draft, ok := e.Save()
	assert.False(t, ok)
	assert.Empty(t, draft)
}

func TestEditState_SetDraftWhenViewing(t *testing.T) {
	var e EditState
	e.SetDraft("ignored")
	assert.Empty(t, e.Draft)
}

func TestEditState_Cancel(t *testing.T) {
	a := assert.New(t)
	c := &models.Comment{ID: "1", Content: "first", Author: models.Author{Username: "ada"}}

	var e EditState
	e.Begin("ada", c)
	e.SetDraft("discard me")
	e.Cancel()

	a.False(e.Editing)
	a.Empty(e.Draft)
	a.Equal("first", c.Content)
}

func TestThreadState(t *testing.T) {
	a := assert.New(t)

	roots := Build([]models.Comment{
		{ID: "1", Content: "root", Author: models.Author{Username: "ada"}},
		{ID: "2", Content: "reply", Author: models.Author{Username: "ada"}, ParentID: models.IDPtr("1")},
	})

	var ts ThreadState
	a.True(ts.Empty())

	node, _, _ := Find(roots, "2")
	a.True(ts.Edit("2").Begin("ada", &node.Comment))
	ts.Edit("1")
	ts.Reply.Reply("1")

	e, ok := ts.Editing("2")
	a.True(ok)
	a.Equal("reply", e.Draft)

	_, ok = ts.Editing("1")
	a.False(ok, "comment 1 was never put in editing")

	ts.Prune(roots)
	a.Len(ts.Edits, 1, "viewing states are pruned")

	ts.Prune(Build([]models.Comment{{ID: "1", Author: models.Author{Username: "ada"}}}))
	a.Empty(ts.Edits, "states of removed comments are pruned")
	a.True(ts.Reply.Replying(), "pruning keeps the reply target")
	a.False(ts.Empty())

	ts.Reply.Cancel()
	a.True(ts.Empty())
}

func TestThreadState_PruneRemovedReplyTarget(t *testing.T) {
	a := assert.New(t)

	var ts ThreadState
	ts.Reply.Reply("2")

	ts.Prune(Build([]models.Comment{
		{ID: "1", Author: models.Author{Username: "ada"}},
		{ID: "2", Author: models.Author{Username: "bob"}, ParentID: models.IDPtr("1")},
	}))
	a.True(ts.Reply.Replying(), "a present target is kept")

	ts.Prune(Build([]models.Comment{{ID: "1", Author: models.Author{Username: "ada"}}}))
	a.False(ts.Reply.Replying(), "a deleted target is cancelled")
	a.Nil(ts.Reply.ParentID())
	a.True(ts.Empty())
}
