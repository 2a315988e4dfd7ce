package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func intForm(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.PostForm(key)); err == nil {
		return v
	}
	return def
}

func floatForm(c *gin.Context, key string, def float64) float64 {
	if v, err := strconv.ParseFloat(c.PostForm(key), 64); err == nil {
		return v
	}
	return def
}

func intQuery(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}
