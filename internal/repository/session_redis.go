package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
)

const sessionKeyPrefix = "spacethreads:session:"

// redisSessionRepo stores sessions as JSON values that expire with the session
type redisSessionRepo struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisSessionRepo creates a new redis session repository
func NewRedisSessionRepo(client *redis.Client) SessionRepository {
	return &redisSessionRepo{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create stores a new session. Sessions that are already expired are not stored.
func (r *redisSessionRepo) Create(ctx context.Context, s *session.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, sessionKey(s.ID), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

// Get retrieves a live session by ID
func (r *redisSessionRepo) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Expired(r.now()) {
		return nil, nil
	}
	return &s, nil
}

// Update replaces a stored session and resets its expiry
func (r *redisSessionRepo) Update(ctx context.Context, s *session.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, s.ID)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.client.SetXX(ctx, sessionKey(s.ID), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session
func (r *redisSessionRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

// DeleteExpired is a no-op: redis drops expired keys itself
func (r *redisSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Count returns the number of stored sessions
func (r *redisSessionRepo) Count(ctx context.Context) (int, error) {
	count := 0
	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}
