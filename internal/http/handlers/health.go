package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health живость процесса и базы, если она подключена
func (h *Handler) Health(c *gin.Context) {
	status := http.StatusOK
	dbState := "disabled"
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			dbState = "unavailable"
		} else {
			dbState = "ok"
		}
	}

	c.JSON(status, gin.H{
		"status":  http.StatusText(status),
		"rooms":   h.Hub.RoomCount(),
		"db":      dbState,
		"version": h.Version,
	})
}
