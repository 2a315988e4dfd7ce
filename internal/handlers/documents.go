package handlers

import (
	"errors"
	"io"
	"net/http"

	"signhub/internal/models"
	"signhub/internal/services"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	docs *services.DocumentService
}

func NewDocumentHandler(docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	userID := c.PostForm("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	doc, err := h.docs.Upload(c.Request.Context(), file, header, userID)
	if err != nil {
		var pe *services.PersistenceError
		if errors.As(err, &pe) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": pe.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documentId": doc.ID,
		"fileUrl":    doc.FileURL,
		"document":   doc,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	docs, err := h.docs.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentHandler) Trash(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	docs, err := h.docs.ListTrash(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trash"})
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentHandler) SoftDelete(c *gin.Context) {
	if err := h.docs.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document moved to trash"})
}

func (h *DocumentHandler) Restore(c *gin.Context) {
	if err := h.docs.Restore(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document restored"})
}

func (h *DocumentHandler) PermanentDelete(c *gin.Context) {
	if err := h.docs.PermanentDelete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document permanently deleted"})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	reader, fileName, err := h.docs.GetReader(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Header("Content-Type", "application/pdf")
	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
