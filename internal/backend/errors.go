package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches API errors for a missing, expired or rejected token
	ErrUnauthorized = errors.New("backend: unauthorized")

	// ErrNotFound matches API errors for unknown resources
	ErrNotFound = errors.New("backend: not found")
)

// APIError is a failed backend call. Status is 0 when no response was received.
type APIError struct {
	Status  int
	Message string
	Detail  string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend unreachable: %v", e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s: %s", e.Status, msg, e.Detail)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrUnauthorized and ErrNotFound by status
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// text is the most specific message the backend gave
func (e *APIError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

// Actions name what the user was doing when a call failed
const (
	ActionLogin          = "login"
	ActionRegister       = "register"
	ActionChangePassword = "change_password"
	ActionForgotPassword = "forgot_password"
	ActionResetPassword  = "reset_password"
	ActionVerifyEmail    = "verify_email"
	ActionComment        = "comment"
	ActionPost           = "post"
	ActionLoad           = "load"
)

// Notice is a user facing description of a failed call
type Notice struct {
	Message string `json:"message"`
	Kind    string `json:"type"`
	Field   string `json:"field,omitempty"`
}

// Describe turns err into a notice for the user. Backend messages are matched on
// keywords to point at the form field at fault.
func Describe(err error, action string) Notice {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status == 0 {
		return Notice{Message: "Network error. Please check your internet connection and try again.", Kind: "network"}
	}

	msg := apiErr.text()
	lower := strings.ToLower(msg)

	switch apiErr.Status {
	case http.StatusBadRequest:
		return describeBadRequest(msg, lower)
	case http.StatusUnauthorized:
		return describeUnauthorized(lower, action)
	case http.StatusForbidden:
		return describeForbidden(lower, action)
	case http.StatusNotFound:
		return describeNotFound(msg, lower, action)
	case http.StatusConflict:
		return describeConflict(msg, lower)
	case http.StatusUnprocessableEntity:
		return describeValidation(msg, lower)
	case http.StatusTooManyRequests:
		return Notice{Message: "Too many attempts. Please wait a few minutes before trying again.", Kind: "rate_limit"}
	case http.StatusInternalServerError:
		return Notice{Message: "Server error. Please try again in a few minutes.", Kind: "server_error"}
	}

	if msg == "" {
		msg = fmt.Sprintf("%s failed. Please try again.", actionLabel(action))
	}
	return Notice{Message: msg, Kind: "unknown"}
}

func describeBadRequest(msg, lower string) Notice {
	switch {
	case containsAll(lower, "username", "already"):
		return Notice{Message: "This username is already taken. Please choose a different username.", Kind: "username_exists", Field: "username"}
	case containsAll(lower, "email", "already"):
		return Notice{Message: "An account with this email already exists. Try logging in instead.", Kind: "email_exists", Field: "email"}
	case containsAll(lower, "password", "weak"):
		return Notice{Message: "Password is too weak. Use at least 8 characters with letters and numbers.", Kind: "weak_password", Field: "password"}
	case strings.Contains(lower, "invalid email"):
		return Notice{Message: "Please enter a valid email address.", Kind: "invalid_email", Field: "email"}
	case strings.Contains(lower, "current password"), strings.Contains(lower, "incorrect password"):
		return Notice{Message: "Current password is incorrect. Please check and try again.", Kind: "incorrect_current_password", Field: "currentPassword"}
	case strings.Contains(lower, "same password"), strings.Contains(lower, "must be different"):
		return Notice{Message: "New password must be different from your current password.", Kind: "same_password", Field: "newPassword"}
	case strings.Contains(lower, "passwords do not match"), strings.Contains(lower, "confirmation"):
		return Notice{Message: "Password confirmation doesn't match. Please check both fields.", Kind: "password_mismatch", Field: "confirmPassword"}
	case strings.Contains(lower, "token") && (strings.Contains(lower, "invalid") || strings.Contains(lower, "expired")):
		return Notice{Message: "This reset link has expired or is invalid. Please request a new password reset.", Kind: "invalid_token"}
	}
	if msg == "" {
		msg = "Invalid request. Please check your information and try again."
	}
	return Notice{Message: msg, Kind: "bad_request"}
}

func describeUnauthorized(lower, action string) Notice {
	switch {
	case strings.Contains(lower, "verify"), strings.Contains(lower, "verification"):
		return Notice{Message: "Please verify your email address before logging in. Check your inbox for the verification link.", Kind: "email_not_verified", Field: "email"}
	case strings.Contains(lower, "credentials"), strings.Contains(lower, "invalid"):
		return Notice{Message: "Invalid email or password. Please check your credentials and try again.", Kind: "invalid_credentials", Field: "email"}
	case action == ActionLogin:
		return Notice{Message: "Login failed. Please check your email and password.", Kind: "login_failed", Field: "email"}
	}
	return Notice{Message: "Authentication required. Please log in to continue.", Kind: "unauthorized"}
}

func describeForbidden(lower, action string) Notice {
	switch {
	case containsAll(lower, "token", "expired"):
		return Notice{Message: "Your session has expired. Please log in again.", Kind: "session_expired"}
	case action == ActionChangePassword:
		return Notice{Message: "You don't have permission to change this password. Please log in again.", Kind: "permission_denied"}
	}
	return Notice{Message: "You don't have permission to perform this action.", Kind: "forbidden"}
}

func describeNotFound(msg, lower, action string) Notice {
	if strings.Contains(lower, "user") || strings.Contains(lower, "account") {
		switch action {
		case ActionLogin:
			return Notice{Message: "No account found with this email. Please check your email or register for a new account.", Kind: "user_not_found", Field: "email"}
		case ActionForgotPassword:
			return Notice{Message: "No account found with this email address. Please check the email or register for a new account.", Kind: "user_not_found", Field: "email"}
		}
	}
	if strings.Contains(lower, "token") {
		return Notice{Message: "This verification or reset link is invalid. Please request a new one.", Kind: "token_not_found"}
	}
	if msg == "" {
		msg = "The requested resource was not found."
	}
	return Notice{Message: msg, Kind: "not_found"}
}

func describeConflict(msg, lower string) Notice {
	switch {
	case strings.Contains(lower, "username"):
		return Notice{Message: "This username is already taken. Please choose a different username.", Kind: "username_conflict", Field: "username"}
	case strings.Contains(lower, "email"):
		return Notice{Message: "An account with this email already exists. Try logging in instead.", Kind: "email_conflict", Field: "email"}
	}
	if msg == "" {
		msg = "This information is already in use. Please try different details."
	}
	return Notice{Message: msg, Kind: "conflict"}
}

func describeValidation(msg, lower string) Notice {
	switch {
	case strings.Contains(lower, "email"):
		return Notice{Message: "Please enter a valid email address.", Kind: "validation_error", Field: "email"}
	case strings.Contains(lower, "password"):
		return Notice{Message: "Password must be at least 8 characters long.", Kind: "validation_error", Field: "password"}
	case strings.Contains(lower, "username"):
		return Notice{Message: "Username must be at least 3 characters long and contain only letters, numbers, and underscores.", Kind: "validation_error", Field: "username"}
	}
	if msg == "" {
		msg = "Please check your information and try again."
	}
	return Notice{Message: msg, Kind: "validation_error"}
}

func containsAll(s string, words ...string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

func actionLabel(action string) string {
	if action == "" {
		return "Action"
	}
	label := strings.ReplaceAll(action, "_", " ")
	return strings.ToUpper(label[:1]) + label[1:]
}
