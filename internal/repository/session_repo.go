package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/commenttree"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/database"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
)

// uniqueViolation is the postgres error code for a duplicate key
const uniqueViolation = "23505"

// sessionRow is the sessions table layout
type sessionRow struct {
	ID        string         `db:"id"`
	Token     string         `db:"token"`
	UserID    sql.NullString `db:"user_id"`
	Username  string         `db:"username"`
	UserData  []byte         `db:"user_data"`
	Threads   []byte         `db:"threads"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	ExpiresAt time.Time      `db:"expires_at"`
}

// sessionRepo is the postgres implementation of SessionRepository
type sessionRepo struct {
	db  *database.DB
	now func() time.Time
}

// NewSessionRepo creates a new postgres session repository
func NewSessionRepo(db *database.DB) SessionRepository {
	return &sessionRepo{db: db, now: time.Now}
}

// Create inserts a new session
func (r *sessionRepo) Create(ctx context.Context, s *session.Session) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, token, user_id, username, user_data, threads, created_at, updated_at, expires_at)
		VALUES (:id, :token, :user_id, :username, :user_data, :threads, :created_at, :updated_at, :expires_at)
	`
	_, err = r.db.NamedExecContext(ctx, query, row)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrSessionExists
	}
	return err
}

// Get retrieves a live session by ID
func (r *sessionRepo) Get(ctx context.Context, id string) (*session.Session, error) {
	// ids come from cookies; anything that is not a uuid cannot be stored
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := `
		SELECT id, token, user_id, username, user_data, threads, created_at, updated_at, expires_at
		FROM sessions WHERE id = $1 AND expires_at > $2
	`

	var row sessionRow
	err := r.db.GetContext(ctx, &row, query, id, r.now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return fromRow(&row)
}

// Update stores the token, user and thread state of a session
func (r *sessionRepo) Update(ctx context.Context, s *session.Session) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions SET
			token = :token, user_id = :user_id, username = :username, user_data = :user_data,
			threads = :threads, updated_at = :updated_at, expires_at = :expires_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// DeleteExpired removes every session that expired at or before now
func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the number of live sessions
func (r *sessionRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sessions WHERE expires_at > $1`, r.now())
	return count, err
}

// toRow encodes a session into its table row
func toRow(s *session.Session) (*sessionRow, error) {
	userData, err := json.Marshal(s.User)
	if err != nil {
		return nil, fmt.Errorf("encode session user: %w", err)
	}

	threads := s.Threads
	if threads == nil {
		threads = map[models.ID]*commenttree.ThreadState{}
	}
	threadData, err := json.Marshal(threads)
	if err != nil {
		return nil, fmt.Errorf("encode session threads: %w", err)
	}

	return &sessionRow{
		ID:        s.ID,
		Token:     s.Token,
		UserID:    nullString(s.User.ID.String()),
		Username:  s.User.Username,
		UserData:  userData,
		Threads:   threadData,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		ExpiresAt: s.ExpiresAt,
	}, nil
}

// fromRow decodes a table row into a session
func fromRow(row *sessionRow) (*session.Session, error) {
	s := &session.Session{
		ID:        row.ID,
		Token:     row.Token,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		ExpiresAt: row.ExpiresAt,
	}
	if err := json.Unmarshal(row.UserData, &s.User); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	if err := json.Unmarshal(row.Threads, &s.Threads); err != nil {
		return nil, fmt.Errorf("decode session threads: %w", err)
	}
	if s.Threads == nil {
		s.Threads = make(map[models.ID]*commenttree.ThreadState)
	}
	return s, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
