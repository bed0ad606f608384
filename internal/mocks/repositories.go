package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/repository"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
)

// MockSessionRepository is an in-memory SessionRepository. Sessions are stored as
// JSON so that tests see exactly what a real store would give back.
type MockSessionRepository struct {
	mu       sync.Mutex
	Sessions map[string][]byte
	Now      func() time.Time

	CreateError error
	GetError    error
	UpdateError error
	DeleteError error
	SweepError  error

	UpdateCalls int
	SweepCalls  int
}

// Verify interface compliance
var _ repository.SessionRepository = (*MockSessionRepository)(nil)

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		Sessions: make(map[string][]byte),
		Now:      time.Now,
	}
}

func (m *MockSessionRepository) Create(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateError != nil {
		return m.CreateError
	}
	if _, ok := m.Sessions[s.ID]; ok {
		return repository.ErrSessionExists
	}
	return m.put(s)
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return nil, m.GetError
	}
	raw, ok := m.Sessions[id]
	if !ok {
		return nil, nil
	}
	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Expired(m.Now()) {
		return nil, nil
	}
	return &s, nil
}

func (m *MockSessionRepository) Update(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Sessions[s.ID]; !ok {
		return repository.ErrSessionNotFound
	}
	return m.put(s)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Sessions, id)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SweepCalls++
	if m.SweepError != nil {
		return 0, m.SweepError
	}
	var deleted int64
	for id, raw := range m.Sessions {
		var s session.Session
		if err := json.Unmarshal(raw, &s); err != nil || s.Expired(now) {
			delete(m.Sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockSessionRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sessions), nil
}

// Put stores s directly, bypassing the error hooks
func (m *MockSessionRepository) Put(s *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.put(s)
}

// Stored returns the stored copy of a session, nil when absent
func (m *MockSessionRepository) Stored(id string) *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.Sessions[id]
	if !ok {
		return nil
	}
	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func (m *MockSessionRepository) put(s *session.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.Sessions[s.ID] = raw
	return nil
}

// Sweeps returns how many times DeleteExpired was called
func (m *MockSessionRepository) Sweeps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SweepCalls
}
