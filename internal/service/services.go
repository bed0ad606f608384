package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/config"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/markdown"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/repository"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/validation"
)

// CommentService drives the threaded comment view of a post
type CommentService interface {
	LoadThread(ctx context.Context, sess *session.Session, postID models.ID) (*ThreadView, error)
	StartReply(ctx context.Context, sess *session.Session, postID, commentID models.ID) (*ThreadView, error)
	CancelReply(ctx context.Context, sess *session.Session, postID models.ID) (*ThreadView, error)
	Submit(ctx context.Context, sess *session.Session, postID models.ID, content string) (*ThreadView, error)
	BeginEdit(ctx context.Context, sess *session.Session, postID, commentID models.ID) (*ThreadView, error)
	CancelEdit(ctx context.Context, sess *session.Session, postID, commentID models.ID) (*ThreadView, error)
	SaveEdit(ctx context.Context, sess *session.Session, postID, commentID models.ID, content string) (*ThreadView, error)
	Delete(ctx context.Context, sess *session.Session, postID, commentID models.ID) (*ThreadView, error)
}

// FeedService serves posts, profiles and the dashboard
type FeedService interface {
	Feed(ctx context.Context, sess *session.Session, page models.PageRequest) (*models.FeedPage, error)
	Search(ctx context.Context, sess *session.Session, query string, page models.PageRequest) (*models.FeedPage, error)
	Popular(ctx context.Context, sess *session.Session, limit int) ([]models.Post, error)
	Recent(ctx context.Context, sess *session.Session, limit int) ([]models.Post, error)
	Post(ctx context.Context, sess *session.Session, id models.ID) (*models.Post, error)
	PostBySlug(ctx context.Context, sess *session.Session, slug string) (*models.Post, error)
	CreatePost(ctx context.Context, sess *session.Session, req models.PostRequest) (*models.Post, error)
	UpdatePost(ctx context.Context, sess *session.Session, id models.ID, req models.PostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, sess *session.Session, id models.ID) error
	ToggleLike(ctx context.Context, sess *session.Session, id models.ID) (*models.Post, error)
	Profile(ctx context.Context, sess *session.Session, username string, page models.PageRequest) (*ProfileView, error)
	Dashboard(ctx context.Context, sess *session.Session) (*Dashboard, error)
}

// AuthService manages accounts and gateway sessions
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*session.Session, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Logout(ctx context.Context, sess *session.Session) error
	DropSession(ctx context.Context, sess *session.Session) error
	Session(ctx context.Context, id string) (*session.Session, error)
	Profile(ctx context.Context, sess *session.Session) (*models.User, error)
	ChangePassword(ctx context.Context, sess *session.Session, req models.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	ActiveSessions(ctx context.Context) (int, error)
}

// PreviewService renders and edits markdown drafts
type PreviewService interface {
	Render(source string) string
	Format(source string, start, end int, action string) (string, int, error)
}

// SweeperService removes expired sessions in the background
type SweeperService interface {
	Start(ctx context.Context)
	Stop()
	SweepOnce(ctx context.Context) (int64, error)
}

// Services holds all service interfaces
type Services struct {
	Comment CommentService
	Feed    FeedService
	Auth    AuthService
	Preview PreviewService
	Sweeper SweeperService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, api backend.API, cfg *config.Config, log zerolog.Logger) *Services {
	v := validation.NewValidator()
	return &Services{
		Comment: newCommentService(api, repos.Session, v, log),
		Feed:    newFeedService(api, v, log),
		Auth:    newAuthService(api, repos.Session, v, cfg.Session.TTL, log),
		Preview: newPreviewService(),
		Sweeper: newSessionSweeper(repos.Session, cfg.Session.SweepInterval, log),
	}
}

// tokenOf returns the backend token of sess, empty for anonymous viewers
func tokenOf(sess *session.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Token
}

// saveSession writes the thread state of sess back to the store
func saveSession(ctx context.Context, repo repository.SessionRepository, sess *session.Session, now time.Time) error {
	sess.Compact()
	sess.UpdatedAt = now
	return repo.Update(ctx, sess)
}

// previewService is the concrete implementation of PreviewService
type previewService struct{}

func newPreviewService() *previewService {
	return &previewService{}
}

func (s *previewService) Render(source string) string {
	return markdown.RenderPreview(source)
}

// Format applies a toolbar action by name to the selection [start, end)
func (s *previewService) Format(source string, start, end int, action string) (string, int, error) {
	a, ok := markdown.ParseAction(action)
	if !ok {
		return "", 0, validation.Errors{{Field: "action", Message: "is not a known formatting action", Value: action}}
	}
	return markdown.Format(source, start, end, a)
}
