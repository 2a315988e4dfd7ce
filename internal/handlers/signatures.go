package handlers

import (
	"errors"
	"net/http"

	"signhub/internal/geom"
	"signhub/internal/models"
	"signhub/internal/overlay"
	"signhub/internal/placement"
	"signhub/internal/services"

	"github.com/gin-gonic/gin"
)

type SignatureHandler struct {
	sigs *services.SignatureService
}

func NewSignatureHandler(sigs *services.SignatureService) *SignatureHandler {
	return &SignatureHandler{sigs: sigs}
}

func (h *SignatureHandler) Create(c *gin.Context) {
	var sig models.Signature
	if err := c.ShouldBindJSON(&sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := h.sigs.Create(c.Request.Context(), &sig)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signature": created})
}

func (h *SignatureHandler) ListByDocument(c *gin.Context) {
	sigs, err := h.sigs.List(c.Request.Context(), c.Param("docId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch signatures"})
		return
	}
	if sigs == nil {
		sigs = []models.Signature{}
	}

	c.JSON(http.StatusOK, gin.H{"signatures": sigs})
}

func (h *SignatureHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sig, err := h.sigs.Update(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signature": sig})
}

// rectRequest carries either stored page-local coordinates or viewport
// coordinates together with the surface geometry needed to map them back.
type rectRequest struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     *float64  `json:"width"`
	Height    *float64  `json:"height"`
	Display   bool      `json:"display"`
	Page      geom.Rect `json:"page"`
	Container geom.Rect `json:"container"`
}

type rectCapture struct {
	fired bool
	upd   placement.RectUpdate
}

func (r *rectCapture) UpdatePosition(id string, x, y float64, size *geom.Size) {
	r.fired = true
	r.upd = placement.RectUpdate{X: x, Y: y}
	if size != nil {
		r.upd.Width = &size.Width
		r.upd.Height = &size.Height
	}
}

func (h *SignatureHandler) UpdateRect(c *gin.Context) {
	id := c.Param("id")

	var req rectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sig, err := h.sigs.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if !req.Display {
		upd := placement.RectUpdate{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}
		if err := h.sigs.UpdateRect(c.Request.Context(), id, upd); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Position updated"})
		return
	}

	mapper := geom.Mapper{Page: req.Page, Container: req.Container}
	dispX, dispY := mapper.ToDisplay(sig.X, sig.Y)
	rect := geom.Rect{Left: dispX, Top: dispY, Width: sig.Width, Height: sig.Height}

	capture := &rectCapture{}
	ctrl := overlay.NewController(id, rect, req.Page, mapper, capture)
	ctrl.SetLocked(sig.Locked)

	if req.Width != nil && req.Height != nil {
		ctrl.ResizeFrame(geom.Rect{Left: req.X, Top: req.Y, Width: *req.Width, Height: *req.Height})
	} else {
		ctrl.DragEnd(req.X-dispX, req.Y-dispY)
	}

	if !capture.fired {
		c.JSON(http.StatusConflict, gin.H{"error": "Signature is locked"})
		return
	}

	if err := h.sigs.UpdateRect(c.Request.Context(), id, capture.upd); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Position updated",
		"x":       capture.upd.X,
		"y":       capture.upd.Y,
	})
}

func (h *SignatureHandler) Delete(c *gin.Context) {
	if err := h.sigs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signature deleted"})
}

func (h *SignatureHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	sig := models.Signature{
		DocumentID: c.PostForm("documentId"),
		Type:       c.PostForm("type"),
		Name:       c.PostForm("name"),
		Font:       c.PostForm("font"),
		Color:      c.PostForm("color"),
	}
	sig.PageNumber = intForm(c, "pageNumber", 1)
	sig.X = floatForm(c, "x", 0)
	sig.Y = floatForm(c, "y", 0)
	sig.Width = floatForm(c, "width", models.DefaultSignatureWidth)
	sig.Height = floatForm(c, "height", models.DefaultSignatureHeight)

	created, err := h.sigs.CreateFromImage(c.Request.Context(), file, header, &sig)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signature": created})
}
