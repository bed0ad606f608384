package api

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
)

//go:embed templates/thread.html
var templateFS embed.FS

var threadTemplate = template.Must(template.New("thread.html").ParseFS(templateFS, "templates/thread.html"))

// threadPage is the data of the thread fragment
type threadPage struct {
	PostID   models.ID
	Total    int
	SignedIn bool
	ReplyTo  string
	Comments []threadNode
}

// threadNode is a comment with its display strings worked out
type threadNode struct {
	*service.NodeView
	AuthorName   string
	Initial      string
	Posted       string
	PostedISO    string
	RepliesLabel string
	Children     []threadNode
}

func renderThread(w io.Writer, tv *service.ThreadView, now time.Time) error {
	page := threadPage{
		PostID:   tv.PostID,
		Total:    tv.Total,
		SignedIn: tv.SignedIn,
		ReplyTo:  tv.ReplyToAuthor,
		Comments: threadNodes(tv.Comments, now),
	}
	return threadTemplate.Execute(w, page)
}

func threadNodes(nodes []*service.NodeView, now time.Time) []threadNode {
	out := make([]threadNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, threadNode{
			NodeView:     n,
			AuthorName:   n.Author.DisplayName(),
			Initial:      n.Author.Initial(),
			Posted:       relativeTime(n.CreatedAt.Time, now),
			PostedISO:    n.CreatedAt.UTC().Format(time.RFC3339),
			RepliesLabel: repliesLabel(n.ReplyCount),
			Children:     threadNodes(n.Replies, now),
		})
	}
	return out
}

// relativeTime formats t the way comment headers show it
func relativeTime(t, now time.Time) string {
	diff := int64(now.Sub(t) / time.Second)
	switch {
	case diff < 60:
		return "just now"
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	case diff < 604800:
		return fmt.Sprintf("%dd ago", diff/86400)
	}
	if t.Year() != now.Year() {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2")
}

func repliesLabel(n int) string {
	if n == 1 {
		return "1 reply"
	}
	return fmt.Sprintf("%d replies", n)
}
