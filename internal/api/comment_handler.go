package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
)

// CommentHandler handles the comment thread endpoints. Every action answers with
// the reloaded thread.
type CommentHandler struct {
	handler
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, cookies cookieJar, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{handler{
		services: services,
		cookies:  cookies,
		log:      log.With().Str("handler", "comment").Logger(),
	}}
}

type contentRequest struct {
	Content string `json:"content"`
}

type replyRequest struct {
	CommentID models.ID `json:"commentId"`
}

// List handles GET /v1/posts/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	tv, err := h.services.Comment.LoadThread(c.Request.Context(), currentSession(c), postParam(c))
	h.thread(c, http.StatusOK, tv, err)
}

// Submit handles POST /v1/posts/:id/comments
func (h *CommentHandler) Submit(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	tv, err := h.services.Comment.Submit(c.Request.Context(), currentSession(c), postParam(c), req.Content)
	h.thread(c, http.StatusCreated, tv, err)
}

// StartReply handles PUT /v1/posts/:id/comments/reply
func (h *CommentHandler) StartReply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.CommentID.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "commentId is required"})
		return
	}
	tv, err := h.services.Comment.StartReply(c.Request.Context(), currentSession(c), postParam(c), req.CommentID)
	h.thread(c, http.StatusOK, tv, err)
}

// CancelReply handles DELETE /v1/posts/:id/comments/reply
func (h *CommentHandler) CancelReply(c *gin.Context) {
	tv, err := h.services.Comment.CancelReply(c.Request.Context(), currentSession(c), postParam(c))
	h.thread(c, http.StatusOK, tv, err)
}

// BeginEdit handles POST /v1/posts/:id/comments/:commentId/edit
func (h *CommentHandler) BeginEdit(c *gin.Context) {
	tv, err := h.services.Comment.BeginEdit(c.Request.Context(), currentSession(c), postParam(c), commentParam(c))
	h.thread(c, http.StatusOK, tv, err)
}

// CancelEdit handles DELETE /v1/posts/:id/comments/:commentId/edit
func (h *CommentHandler) CancelEdit(c *gin.Context) {
	tv, err := h.services.Comment.CancelEdit(c.Request.Context(), currentSession(c), postParam(c), commentParam(c))
	h.thread(c, http.StatusOK, tv, err)
}

// Save handles PUT /v1/posts/:id/comments/:commentId
func (h *CommentHandler) Save(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	tv, err := h.services.Comment.SaveEdit(c.Request.Context(), currentSession(c), postParam(c), commentParam(c), req.Content)
	h.thread(c, http.StatusOK, tv, err)
}

// Delete handles DELETE /v1/posts/:id/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	tv, err := h.services.Comment.Delete(c.Request.Context(), currentSession(c), postParam(c), commentParam(c))
	h.thread(c, http.StatusOK, tv, err)
}

// Fragment handles GET /posts/:id/comments and renders the thread as HTML
func (h *CommentHandler) Fragment(c *gin.Context) {
	tv, err := h.services.Comment.LoadThread(c.Request.Context(), currentSession(c), postParam(c))
	if err != nil {
		h.fail(c, err, backend.ActionComment)
		return
	}

	var buf bytes.Buffer
	if err := renderThread(&buf, tv, time.Now()); err != nil {
		h.fail(c, err, backend.ActionComment)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *CommentHandler) thread(c *gin.Context, status int, tv *service.ThreadView, err error) {
	if err != nil {
		h.fail(c, err, backend.ActionComment)
		return
	}
	c.JSON(status, tv)
}

func postParam(c *gin.Context) models.ID {
	return models.ID(c.Param("id"))
}

func commentParam(c *gin.Context) models.ID {
	return models.ID(c.Param("commentId"))
}
