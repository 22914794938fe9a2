package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/steepline/steepline/internal/stats"
	"go.uber.org/zap"
)

func (h *httpHandler) handleLeaderboard(c *gin.Context) {
	key, err := stats.ParseSortKey(c.Query("type"))
	if errors.Is(err, stats.ErrUnknownSortKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_leaderboard_type"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	limit := stats.ParseLimit(c.Query("limit"))

	entries, err := h.statsService.Leaderboard(c.Request.Context(), key, limit)
	if err != nil {
		h.logger.Error("failed to compute leaderboard", zap.Error(err), zap.String("type", string(key)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard_failed"})
		return
	}

	c.JSON(http.StatusOK, entries)
}
