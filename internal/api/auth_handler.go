package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
)

// AuthHandler handles account endpoints
type AuthHandler struct {
	handler
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, cookies cookieJar, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{handler{
		services: services,
		cookies:  cookies,
		log:      log.With().Str("handler", "auth").Logger(),
	}}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	sess, err := h.services.Auth.Login(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, backend.ActionLogin)
		return
	}

	h.cookies.set(c, sess)
	c.JSON(http.StatusOK, gin.H{
		"user":      sess.User,
		"expiresAt": sess.ExpiresAt,
	})
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, backend.ActionRegister)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "Registration successful. Please check your email to verify your account.",
	})
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.services.Auth.Logout(c.Request.Context(), currentSession(c)); err != nil {
		h.fail(c, err, backend.ActionLogin)
		return
	}
	h.cookies.clear(c)
	c.Status(http.StatusNoContent)
}

// Profile handles GET /v1/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.services.Auth.Profile(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err, backend.ActionLoad)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword handles POST /v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.services.Auth.ChangePassword(c.Request.Context(), currentSession(c), req); err != nil {
		h.fail(c, err, backend.ActionChangePassword)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// ForgotPassword handles POST /v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.services.Auth.ForgotPassword(c.Request.Context(), req); err != nil {
		h.fail(c, err, backend.ActionForgotPassword)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If an account exists for that email, a reset link has been sent"})
}

// ResetPassword handles POST /v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.services.Auth.ResetPassword(c.Request.Context(), req); err != nil {
		h.fail(c, err, backend.ActionResetPassword)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset. You can now log in."})
}

// VerifyEmail handles GET /v1/auth/verify-email?token=...
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.services.Auth.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.fail(c, err, backend.ActionVerifyEmail)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "message": "Email verified"})
}
