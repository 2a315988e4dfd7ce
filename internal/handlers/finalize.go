package handlers

import (
	"errors"
	"net/http"

	"signhub/internal/composer"
	"signhub/internal/services"

	"github.com/gin-gonic/gin"
)

type FinalizeHandler struct {
	finalizer *services.FinalizeService
}

func NewFinalizeHandler(finalizer *services.FinalizeService) *FinalizeHandler {
	return &FinalizeHandler{finalizer: finalizer}
}

type finalizeRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	Mode       string `json:"mode"`
}

func (h *FinalizeHandler) Finalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentId is required"})
		return
	}

	mode := services.Mode(req.Mode)
	switch mode {
	case services.ModePersist, services.ModePreview, services.ModeBlob:
	case "":
		mode = services.ModePersist
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown mode: " + req.Mode})
		return
	}

	result, err := h.finalizer.Finalize(c.Request.Context(), req.DocumentID, mode)
	if err != nil {
		var fe *composer.FetchError
		if errors.As(err, &fe) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Signed-File-Name", result.FileName)
	if result.UploadErr != nil {
		c.Header("X-Upload-Warning", result.UploadErr.Error())
	}

	switch mode {
	case services.ModePreview:
		c.Header("Content-Disposition", "inline; filename=\""+result.FileName+"\"")
	case services.ModeBlob:
	default:
		c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	}
	c.Data(http.StatusOK, "application/pdf", result.Bytes)
}
