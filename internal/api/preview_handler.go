package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/backend"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
)

// PreviewHandler handles the editor endpoints
type PreviewHandler struct {
	handler
}

// NewPreviewHandler creates a new PreviewHandler
func NewPreviewHandler(services *service.Services, log zerolog.Logger) *PreviewHandler {
	return &PreviewHandler{handler{
		services: services,
		log:      log.With().Str("handler", "preview").Logger(),
	}}
}

// Preview handles POST /v1/preview
func (h *PreviewHandler) Preview(c *gin.Context) {
	var req struct {
		Source string `json:"source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": h.services.Preview.Render(req.Source)})
}

// Format handles POST /v1/format
func (h *PreviewHandler) Format(c *gin.Context) {
	var req struct {
		Source string `json:"source"`
		Start  int    `json:"start"`
		End    int    `json:"end"`
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	source, cursor, err := h.services.Preview.Format(req.Source, req.Start, req.End, req.Action)
	if err != nil {
		h.fail(c, err, backend.ActionPost)
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "cursor": cursor})
}
