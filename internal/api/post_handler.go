package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/models"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
)

// defaultListLimit is the size of the popular and recent lists
const defaultListLimit = 5

// PostHandler handles feed, post, profile and dashboard endpoints
type PostHandler struct {
	handler
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, cookies cookieJar, log zerolog.Logger) *PostHandler {
	return &PostHandler{handler{
		services: services,
		cookies:  cookies,
		log:      log.With().Str("handler", "post").Logger(),
	}}
}

// Feed handles GET /v1/feed?page=&size=&sortBy=&sortDir=
func (h *PostHandler) Feed(c *gin.Context) {
	var page models.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		h.badRequest(c, err)
		return
	}
	fp, err := h.services.Feed.Feed(c.Request.Context(), currentSession(c), page)
	if err != nil {
		h.fail(c, err, backend.ActionLoad)
		return
	}
	c.JSON(http.StatusOK, fp)
}

// Search handles GET /v1/feed/search?q=
func (h *PostHandler) Search(c *gin.Context) {
	var page models.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		h.badRequest(c, err)
		return
	}
	fp, err := h.services.Feed.Search(c.Request.Context(), currentSession(c), c.Query("q"), page)
	if err != nil {
		h.fail(c, err, backend.ActionLoad)
		return
	}
	c.JSON(http.StatusOK, fp)
}

// Popular handles GET /v1/feed/popular?limit=
func (h *PostHandler) Popular(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	posts, err := h.services.Feed.Popular(c.Request.Context(), currentSession(c), limit)
	if err != nil {
		h.fail(c, err, backend.ActionLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Recent handles GET /v1/feed/recent?limit=
func (h *PostHandler) Recent(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	posts, err := h.services.Feed.Recent(c.Request.Context(), currentSession(c), limit)
	if err != nil {
		h.fail(c, err, backend.ActionLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Get handles GET /v1/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.services.Feed.Post(c.Request.Context(), currentSession(c), models.ID(c.Param("id")))
	if err != nil {
		h.fail(c, err, backend.ActionPost)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetBySlug handles GET /v1/slugs/:slug
func (h *PostHandler) GetBySlug(c *gin.Context) {
	post, err := h.services.Feed.PostBySlug(c.Request.Context(), currentSession(c), c.Param("slug"))
	if err != nil {
		h.fail(c, err, backend.ActionPost)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Create handles POST /v1/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req models.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	post, err := h.services.Feed.CreatePost(c.Request.Context(), currentSession(c), req)
	if err != nil {
		h.fail(c, err, backend.ActionPost)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Update handles PUT /v1/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	var req models.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	post, err := h.services.Feed.UpdatePost(c.Request.Context(), currentSession(c), models.ID(c.Param("id")), req)
	if err != nil {
		h.fail(c, err, backend.ActionPost)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /v1/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.services.Feed.DeletePost(c.Request.Context(), currentSession(c), models.ID(c.Param("id"))); err != nil {
		h.fail(c, err, backend.ActionPost)
		return
	}
	c.Status(http.StatusNoContent)
}

// Like handles POST /v1/posts/:id/like
func (h *PostHandler) Like(c *gin.Context) {
	post, err := h.services.Feed.ToggleLike(c.Request.Context(), currentSession(c), models.ID(c.Param("id")))
	if err != nil {
		h.fail(c, err, backend.ActionPost)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Profile handles GET /v1/profiles/:username
func (h *PostHandler) Profile(c *gin.Context) {
	var page models.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		h.badRequest(c, err)
		return
	}
	pv, err := h.services.Feed.Profile(c.Request.Context(), currentSession(c), c.Param("username"), page)
	if err != nil {
		h.fail(c, err, backend.ActionLoad)
		return
	}
	c.JSON(http.StatusOK, pv)
}

// Dashboard handles GET /v1/dashboard
func (h *PostHandler) Dashboard(c *gin.Context) {
	d, err := h.services.Feed.Dashboard(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err, backend.ActionLoad)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *PostHandler) limit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return n, true
}
