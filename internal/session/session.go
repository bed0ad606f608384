// Package session holds what the gateway keeps per signed-in browser: the backend
// token, the user it belongs to and the comment thread UI state of each post.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/commenttree"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

// Session is one signed-in browser
type Session struct {
	ID        string                                 `json:"id"`
	Token     string                                 `json:"token"`
	User      models.User                            `json:"user"`
	Threads   map[models.ID]*commenttree.ThreadState `json:"threads,omitempty"`
	CreatedAt time.Time                              `json:"createdAt"`
	UpdatedAt time.Time                              `json:"updatedAt"`
	ExpiresAt time.Time                              `json:"expiresAt"`
}

// New creates a session with a random id
func New(token string, user models.User, now time.Time, expiresAt time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		Threads:   make(map[models.ID]*commenttree.ThreadState),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}
}

// Expired reports whether the session has run out at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Username is the name comments are matched against for authorship
func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	return s.User.Username
}

// Thread returns the thread state of a post, creating it on first use
func (s *Session) Thread(postID models.ID) *commenttree.ThreadState {
	if s.Threads == nil {
		s.Threads = make(map[models.ID]*commenttree.ThreadState)
	}
	t, ok := s.Threads[postID]
	if !ok {
		t = &commenttree.ThreadState{}
		s.Threads[postID] = t
	}
	return t
}

// Compact drops thread states that hold nothing
func (s *Session) Compact() {
	for id, t := range s.Threads {
		if t == nil || t.Empty() {
			delete(s.Threads, id)
		}
	}
}
