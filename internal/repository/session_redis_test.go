package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, SessionRepository) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return s, NewRedisSessionRepo(client)
}

func newSession(ttl time.Duration) *session.Session {
	now := time.Now()
	return session.New("tok", models.User{ID: "3", Username: "ada"}, now, now.Add(ttl))
}

func TestRedisSessionRepo_CreateGet(t *testing.T) {
	_, repo := setupRedis(t)
	ctx := context.Background()

	s := newSession(time.Hour)
	s.Thread("7").Reply.Reply("5")
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	a := assert.New(t)
	a.Equal("tok", got.Token)
	a.Equal("ada", got.User.Username)
	a.Equal(models.ID("5"), *got.Thread("7").Reply.ParentID())

	a.ErrorIs(repo.Create(ctx, s), ErrSessionExists)
}

func TestRedisSessionRepo_GetUnknown(t *testing.T) {
	_, repo := setupRedis(t)

	got, err := repo.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionRepo_Expiry(t *testing.T) {
	mr, repo := setupRedis(t)
	ctx := context.Background()

	s := newSession(time.Minute)
	require.NoError(t, repo.Create(ctx, s))

	mr.FastForward(2 * time.Minute)

	got, err := repo.Get(ctx, s.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	expired := newSession(-time.Minute)
	require.NoError(t, repo.Create(ctx, expired))
	assert.False(t, mr.Exists(sessionKey(expired.ID)), "expired sessions are not stored")
}

func TestRedisSessionRepo_Update(t *testing.T) {
	mr, repo := setupRedis(t)
	ctx := context.Background()

	s := newSession(time.Hour)
	require.NoError(t, repo.Create(ctx, s))

	s.Thread("7").Reply.Reply("9")
	s.ExpiresAt = time.Now().Add(2 * time.Hour)
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ID("9"), *got.Thread("7").Reply.ParentID())
	assert.Greater(t, mr.TTL(sessionKey(s.ID)), time.Hour)

	require.NoError(t, repo.Delete(ctx, s.ID))
	assert.ErrorIs(t, repo.Update(ctx, s), ErrSessionNotFound)
}

func TestRedisSessionRepo_Count(t *testing.T) {
	mr, repo := setupRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newSession(time.Hour)))
	}
	require.NoError(t, mr.Set("unrelated", "value"))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	removed, err := repo.DeleteExpired(ctx, time.Now())
	assert.NoError(t, err)
	assert.Zero(t, removed)
}
