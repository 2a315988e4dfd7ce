package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"signhub/internal/services"
	"signhub/internal/viewport"

	"github.com/gin-gonic/gin"
)

type RenderHandler struct {
	docs     *services.DocumentService
	renderer *viewport.Renderer
}

func NewRenderHandler(docs *services.DocumentService, renderer *viewport.Renderer) *RenderHandler {
	return &RenderHandler{docs: docs, renderer: renderer}
}

func (h *RenderHandler) source(c *gin.Context, documentID string) ([]byte, bool) {
	reader, _, err := h.docs.GetReader(c.Request.Context(), documentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	defer reader.Close()

	src, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read document"})
		return nil, false
	}
	return src, true
}

func (h *RenderHandler) RenderPage(c *gin.Context) {
	documentID := c.Param("id")

	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page number"})
		return
	}

	src, ok := h.source(c, documentID)
	if !ok {
		return
	}

	rendered, err := h.renderer.RenderPage(c.Request.Context(), documentID, src, page)
	if err != nil {
		if errors.Is(err, viewport.ErrStaleRender) {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Page-Number", strconv.Itoa(rendered.PageNumber))
	c.Header("X-Page-Count", strconv.Itoa(rendered.PageCount))
	c.Header("X-Render-Scale", fmt.Sprintf("%g", rendered.Scale))
	c.Header("X-Page-Width", fmt.Sprintf("%g", rendered.Bounds.Width))
	c.Header("X-Page-Height", fmt.Sprintf("%g", rendered.Bounds.Height))
	c.Data(http.StatusOK, "application/pdf", rendered.PDF)
}

func (h *RenderHandler) PageGeometry(c *gin.Context) {
	rendered, ok := h.renderer.Current(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No rendered page for document"})
		return
	}
	c.JSON(http.StatusOK, rendered)
}

func (h *RenderHandler) Thumbnails(c *gin.Context) {
	src, ok := h.source(c, c.Param("id"))
	if !ok {
		return
	}

	thumbs, err := h.renderer.Thumbnails(c.Request.Context(), src)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"thumbnails": thumbs, "scale": viewport.ThumbnailScale})
}
