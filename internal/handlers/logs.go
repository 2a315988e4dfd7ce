package handlers

import (
	"net/http"

	"signhub/internal/services"

	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	logs *services.ActivityLogService
}

func NewLogsHandler(logs *services.ActivityLogService) *LogsHandler {
	return &LogsHandler{logs: logs}
}

func (h *LogsHandler) GetLogs(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	logs, total, err := h.logs.GetAllLogs(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
