package handlers

import (
	"net/http"

	"signhub/internal/fontcache"

	"github.com/gin-gonic/gin"
)

type FontsHandler struct {
	catalog *fontcache.Catalog
	cache   *fontcache.Cache
}

func NewFontsHandler(catalog *fontcache.Catalog, cache *fontcache.Cache) *FontsHandler {
	return &FontsHandler{catalog: catalog, cache: cache}
}

func (h *FontsHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"families": h.catalog.Families,
		"colors":   h.catalog.Colors,
		"default":  h.catalog.Default(),
	})
}

// Preload resolves a family ahead of finalization so the first composite
// does not pay the fetch cost.
func (h *FontsHandler) Preload(c *gin.Context) {
	family := c.Query("family")
	if family == "" || !h.catalog.Allowed(family) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown font family"})
		return
	}

	res, err := h.cache.Resolve(c.Request.Context(), family)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"family": res.Family, "pdfName": res.PDFName})
}
