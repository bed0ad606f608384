package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/database"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
)

var (
	// ErrSessionExists is returned when creating a session whose id is taken
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionNotFound is returned when updating a session that is gone
	ErrSessionNotFound = errors.New("session not found")
)

// SessionRepository defines the interface for session storage.
// Get returns (nil, nil) for unknown and expired sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *session.Session) error
	Get(ctx context.Context, id string) (*session.Session, error)
	Update(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Session SessionRepository
}

// New creates repositories backed by postgres
func New(db *database.DB) *Repositories {
	return &Repositories{
		Session: NewSessionRepo(db),
	}
}

// NewRedis creates repositories backed by redis
func NewRedis(client *redis.Client) *Repositories {
	return &Repositories{
		Session: NewRedisSessionRepo(client),
	}
}
