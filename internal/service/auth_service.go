package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/repository"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/validation"
)

// authService is the concrete implementation of AuthService
type authService struct {
	api       backend.AuthAPI
	sessions  repository.SessionRepository
	validator *validation.Validator
	ttl       time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func newAuthService(api backend.AuthAPI, sessions repository.SessionRepository, v *validation.Validator, ttl time.Duration, log zerolog.Logger) *authService {
	return &authService{
		api:       api,
		sessions:  sessions,
		validator: v,
		ttl:       ttl,
		log:       log.With().Str("service", "auth").Logger(),
		now:       time.Now,
	}
}

// Login signs in at the backend and opens a gateway session holding the token.
// The session ends with the token, or after the configured TTL if that is sooner.
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*session.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, token, err := s.api.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	if exp, ok := tokenExpiry(token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}
	if !expiresAt.After(now) {
		return nil, &backend.APIError{Status: http.StatusUnauthorized, Message: "token already expired"}
	}

	sess := session.New(token, *user, now, expiresAt)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Info().
		Str("username", user.Username).
		Time("expires_at", expiresAt).
		Msg("User signed in")
	return sess, nil
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("username", req.Username).Msg("User registered")
	return user, nil
}

// Logout ends the backend session and deletes the gateway session. A backend
// failure does not keep the gateway session alive.
func (s *authService) Logout(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	if err := s.api.Logout(ctx, sess.Token); err != nil {
		s.log.Warn().Err(err).Str("username", sess.Username()).Msg("Backend logout failed")
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DropSession deletes a session whose token the backend no longer accepts
func (s *authService) DropSession(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	s.log.Info().Str("username", sess.Username()).Msg("Dropping session rejected by backend")
	return s.sessions.Delete(ctx, sess.ID)
}

// Session returns the live session with id, or nil
func (s *authService) Session(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to delete expired session")
		}
		return nil, nil
	}
	return sess, nil
}

// Profile fetches the current user and refreshes the copy held in the session
func (s *authService) Profile(ctx context.Context, sess *session.Session) (*models.User, error) {
	if sess == nil {
		return nil, ErrSignInRequired
	}
	user, err := s.api.Profile(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	if user != nil && *user != sess.User {
		sess.User = *user
		if err := saveSession(ctx, s.sessions, sess, s.now()); err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to refresh session user")
		}
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, sess *session.Session, req models.ChangePasswordRequest) error {
	if sess == nil {
		return ErrSignInRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.api.ChangePassword(ctx, sess.Token, req)
}

func (s *authService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.api.ForgotPassword(ctx, req)
}

func (s *authService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.api.ResetPassword(ctx, req)
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, validation.Errors{{Field: "token", Message: "is required"}}
	}
	return s.api.VerifyEmail(ctx, token)
}

// ActiveSessions counts the sessions in the store
func (s *authService) ActiveSessions(ctx context.Context) (int, error) {
	return s.sessions.Count(ctx)
}

// tokenExpiry reads the exp claim of a backend JWT. The signature is not checked;
// the backend does that on every call.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
