package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 100
)

// последние матчи, опционально по типу игры
func (h *Handler) RecentMatches(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history disabled"})
		return
	}

	limit := defaultMatchLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad limit"})
			return
		}
		limit = min(n, maxMatchLimit)
	}

	gameType := c.Query("game")
	if gameType != "" && !h.Hub.HasGame(gameType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game type"})
		return
	}

	matches, err := h.Matches.GetRecent(c.Request.Context(), gameType, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get matches"})
		return
	}

	out := make([]gin.H, 0, len(matches))
	for _, m := range matches {
		out = append(out, gin.H{
			"id":          m.ID,
			"game_type":   m.GameType,
			"player1":     m.Player1,
			"player2":     m.Player2,
			"winner":      m.Winner,
			"winner_name": m.WinnerName(),
			"bet":         m.Bet,
			"finished_at": m.FinishedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}

// число сыгранных матчей по играм
func (h *Handler) MatchStats(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history disabled"})
		return
	}
	counts, err := h.Matches.CountByGame(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"played": counts})
}
