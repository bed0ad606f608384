package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/validation"
)

// handler carries what every handler needs
type handler struct {
	services *service.Services
	cookies  cookieJar
	log      zerolog.Logger
}

// fail writes err as a JSON error response. action names what the user was doing,
// for the wording of backend failures.
func (h *handler) fail(c *gin.Context, err error, action string) {
	var (
		verrs     validation.Errors
		actionErr *service.ActionError
		apiErr    *backend.APIError
	)

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verrs})

	case errors.Is(err, service.ErrSignInRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in to continue"})

	case errors.Is(err, backend.ErrUnauthorized):
		h.dropSession(c)
		notice := backend.Describe(err, action)
		c.JSON(http.StatusUnauthorized, gin.H{"error": notice.Message, "notice": notice})

	case errors.As(err, &actionErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  actionErr.Notice.Message,
			"notice": actionErr.Notice,
			"thread": actionErr.Thread,
		})

	case errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})

	case errors.Is(err, service.ErrReplyTooDeep):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Replies are not allowed at this depth"})

	case errors.Is(err, service.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can edit this comment"})

	case errors.Is(err, service.ErrNotEditing):
		c.JSON(http.StatusConflict, gin.H{"error": "Comment is not being edited"})

	case errors.As(err, &apiErr):
		notice := backend.Describe(err, action)
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		if status == http.StatusBadGateway {
			h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Backend call failed")
		}
		c.JSON(status, gin.H{"error": notice.Message, "notice": notice})

	case errors.Is(err, context.Canceled):
		// client went away
		c.Status(http.StatusRequestTimeout)

	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// badRequest reports a body or query that could not be decoded
func (h *handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

// dropSession forgets the session of a request whose token the backend rejected
func (h *handler) dropSession(c *gin.Context) {
	sess := currentSession(c)
	if sess == nil {
		return
	}
	if err := h.services.Auth.DropSession(c.Request.Context(), sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to drop session")
	}
	h.cookies.clear(c)
	c.Set(sessionKey, nil)
}
