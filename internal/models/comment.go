package models

import "strings"

// MaxCommentLength is the longest comment body the backend accepts
const MaxCommentLength = 1000

// Author is the user reference embedded in comments
type Author struct {
	ID       ID     `json:"id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// DisplayName returns the name shown next to a comment
func (a Author) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Username
}

// Initial returns the avatar letter for the author
func (a Author) Initial() string {
	name := a.DisplayName()
	if name == "" {
		return "U"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}

// Comment represents a comment on a post as received from the backend
type Comment struct {
	ID        ID     `json:"id"`
	Content   string `json:"content"`
	Author    Author `json:"author"`
	PostID    ID     `json:"postId,omitempty"`
	ParentID  *ID    `json:"parentId,omitempty"`
	CreatedAt Time   `json:"createdAt"`
	UpdatedAt *Time  `json:"updatedAt,omitempty"`
}

// IsRoot reports whether the comment has no parent
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil || c.ParentID.IsZero()
}

// Edited reports whether the comment was changed after it was posted
func (c *Comment) Edited() bool {
	return c.UpdatedAt != nil && !c.UpdatedAt.IsZero() && !c.UpdatedAt.Equal(c.CreatedAt.Time)
}

// AuthoredBy compares the author by username
func (c *Comment) AuthoredBy(username string) bool {
	return username != "" && c.Author.Username == username
}

// CreateCommentRequest is the backend body for a new comment
type CreateCommentRequest struct {
	Content         string `json:"content" validate:"notblank,max=1000"`
	ParentCommentID *ID    `json:"parentCommentId,omitempty"`
}
