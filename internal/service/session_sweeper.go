package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/repository"
)

// defaultSweepInterval is used when no interval is configured
const defaultSweepInterval = 10 * time.Minute

// sessionSweeper periodically deletes expired sessions
type sessionSweeper struct {
	sessions repository.SessionRepository
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func newSessionSweeper(sessions repository.SessionRepository, interval time.Duration, log zerolog.Logger) *sessionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &sessionSweeper{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("service", "session_sweeper").Logger(),
		now:      time.Now,
	}
}

// Start runs the sweep loop until ctx is done or Stop is called. It blocks, so
// callers run it in a goroutine.
func (s *sessionSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	defer close(done)

	s.log.Info().Dur("interval", s.interval).Msg("Session sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Session sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop ends the sweep loop and waits for it to return
func (s *sessionSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.done
	s.running = false
	s.log.Info().Msg("Session sweeper stopped")
}

// SweepOnce deletes the sessions that have expired by now
func (s *sessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// sweep runs one pass. A panic in the store is logged and the loop keeps going.
func (s *sessionSweeper) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Session sweep panicked - recovered")
		}
	}()

	deleted, err := s.SweepOnce(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to delete expired sessions")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("Expired sessions deleted")
	}
}
