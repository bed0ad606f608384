package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
)

// Login exchanges credentials for the user and a bearer token
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	env, err := call[*models.User](ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   req,
	})
	if err != nil {
		return nil, "", err
	}
	if env.Token == "" || env.Data == nil {
		return nil, "", &APIError{Status: http.StatusOK, Message: "login response without token"}
	}
	return env.Data, env.Token, nil
}

// Register creates an account. The backend mails a verification link.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	return data[*models.User](ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   req,
	})
}

// Logout ends the backend session of token
func (c *Client) Logout(ctx context.Context, token string) error {
	return exec(ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/logout",
		token:  token,
	})
}

// Profile returns the user that owns token
func (c *Client) Profile(ctx context.Context, token string) (*models.User, error) {
	return data[*models.User](ctx, c, request{
		method: http.MethodGet,
		path:   "/auth/profile",
		token:  token,
	})
}

// ChangePassword changes the password of the signed-in user
func (c *Client) ChangePassword(ctx context.Context, token string, req models.ChangePasswordRequest) error {
	return exec(ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/change-password",
		token:  token,
		body:   req,
	})
}

// ForgotPassword asks the backend to mail a reset link
func (c *Client) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	return exec(ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/forgot-password",
		body:   req,
	})
}

// ResetPassword sets a new password using a mailed reset token
func (c *Client) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return exec(ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/reset-password",
		body:   req,
	})
}

// VerifyEmail confirms an email address with a mailed verification token
func (c *Client) VerifyEmail(ctx context.Context, verificationToken string) (*models.User, error) {
	return data[*models.User](ctx, c, request{
		method: http.MethodGet,
		path:   "/auth/verify-email",
		query:  url.Values{"token": {verificationToken}},
	})
}
