package handlers

import (
	"time"

	"signhub/internal/services"

	"github.com/gin-gonic/gin"
)

// ActivityLogger records every request after it completes. Logging is
// asynchronous and never delays the response.
func ActivityLogger(logs *services.ActivityLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logs.LogRequest(c, c.Writer.Status(), time.Since(start))
	}
}
