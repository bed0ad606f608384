// Package backend is a typed client for the blog REST API. Every endpoint answers
// with the same envelope; failures come back as *APIError.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/config"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

// CommentAPI is the comment part of the backend
type CommentAPI interface {
	ListAllComments(ctx context.Context, token string, postID models.ID) ([]models.Comment, error)
	CreateComment(ctx context.Context, token string, postID models.ID, req models.CreateCommentRequest) (*models.Comment, error)
	UpdateComment(ctx context.Context, token string, id models.ID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, token string, id models.ID) error
	MyComments(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Comment], error)
	CommentCount(ctx context.Context, token string, postID models.ID) (int64, error)
}

// PostAPI is the post part of the backend
type PostAPI interface {
	ListPosts(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Post], error)
	GetPost(ctx context.Context, token string, id models.ID) (*models.Post, error)
	GetPostBySlug(ctx context.Context, token string, slug string) (*models.Post, error)
	CreatePost(ctx context.Context, token string, req models.PostRequest) (*models.Post, error)
	UpdatePost(ctx context.Context, token string, id models.ID, req models.PostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, token string, id models.ID) error
	ToggleLike(ctx context.Context, token string, id models.ID) (*models.Post, error)
	SearchPosts(ctx context.Context, token string, query string, page models.PageRequest) (*models.Page[models.Post], error)
	PopularPosts(ctx context.Context, token string, limit int) ([]models.Post, error)
	RecentPosts(ctx context.Context, token string, limit int) ([]models.Post, error)
	MyPosts(ctx context.Context, token string, page models.PageRequest) (*models.Page[models.Post], error)
	PostsByAuthor(ctx context.Context, token string, username string, page models.PageRequest) (*models.Page[models.Post], error)
	PostStats(ctx context.Context, token string) (*models.PostStats, error)
}

// AuthAPI is the account part of the backend
type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, token string) (*models.User, error)
	ChangePassword(ctx context.Context, token string, req models.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, verificationToken string) (*models.User, error)
}

// API is the whole backend
type API interface {
	CommentAPI
	PostAPI
	AuthAPI
}

var _ API = (*Client)(nil)

// Client calls the backend over HTTP
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// New creates a client for the backend at cfg.BaseURL. Failed calls are never retried.
func New(cfg config.BackendConfig, log zerolog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{
		http: rc,
		log:  log.With().Str("component", "backend").Logger(),
	}
}

// request describes a single backend call
type request struct {
	method     string
	path       string
	token      string
	pathParams map[string]string
	query      url.Values
	body       interface{}
}

// failure is the envelope of an error response; the data field is ignored
type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// call executes r and decodes the envelope. T is the type of the data field.
func call[T any](ctx context.Context, c *Client, r request) (*models.Envelope[T], error) {
	var (
		env  models.Envelope[T]
		fail failure
	)

	req := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&fail)
	if r.token != "" {
		req.SetAuthToken(r.token)
	}
	if len(r.pathParams) > 0 {
		req.SetPathParams(r.pathParams)
	}
	if len(r.query) > 0 {
		req.SetQueryParamsFromValues(r.query)
	}
	if r.body != nil {
		req.SetBody(r.body)
	}

	resp, err := req.Execute(r.method, r.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		if resp == nil || resp.StatusCode() == 0 {
			c.log.Warn().Err(err).Str("method", r.method).Str("path", r.path).Msg("Backend call failed")
			return nil, &APIError{Err: err}
		}
		// the body did not decode; error statuses are still reported below
		if !resp.IsError() {
			return nil, &APIError{Status: resp.StatusCode(), Message: "malformed response", Err: err}
		}
	}

	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Msg("Backend call")

	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: fail.Message, Detail: fail.Error}
	}
	if !env.Success {
		return nil, &APIError{Status: resp.StatusCode(), Message: env.Message, Detail: env.Error}
	}
	return &env, nil
}

// data executes r and returns the data field
func data[T any](ctx context.Context, c *Client, r request) (T, error) {
	env, err := call[T](ctx, c, r)
	if err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// exec executes r and discards the data field
func exec(ctx context.Context, c *Client, r request) error {
	_, err := call[json.RawMessage](ctx, c, r)
	return err
}

func pageQuery(p models.PageRequest) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("size", strconv.Itoa(p.Size))
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortDir != "" {
		q.Set("sortDir", p.SortDir)
	}
	return q
}

func id(v models.ID) map[string]string {
	return map[string]string{"id": v.String()}
}
