package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// список доступных типов игр
func (h *Handler) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": h.Hub.Types()})
}

// состояние комнаты по коду
func (h *Handler) GetRoom(c *gin.Context) {
	info, ok := h.Hub.RoomInfo(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}
