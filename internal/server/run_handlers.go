package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/steepline/steepline/internal/runs"
	"go.uber.org/zap"
)

type runResponsePayload struct {
	ID           string    `json:"id"`
	SpotID       string    `json:"spotId"`
	UserID       string    `json:"userId"`
	NumberOfRuns int       `json:"numberOfRuns"`
	Notes        *string   `json:"notes"`
	DateLogged   time.Time `json:"dateLogged"`
	CreatedAt    time.Time `json:"createdAt"`
}

type runDetailPayload struct {
	ID           string    `json:"id"`
	SpotID       string    `json:"spotId"`
	UserID       string    `json:"userId"`
	NumberOfRuns int       `json:"numberOfRuns"`
	Notes        *string   `json:"notes"`
	DateLogged   time.Time `json:"dateLogged"`
	CreatedAt    time.Time `json:"createdAt"`
	SpotName     string    `json:"spotName"`
	SpotDistance float64   `json:"spotDistance"`
}

func (h *httpHandler) handleListRuns(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	details, err := h.runsService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run_list_failed"})
		return
	}

	payload := make([]runDetailPayload, 0, len(details))
	for _, detail := range details {
		payload = append(payload, runDetailPayload{
			ID:           detail.ID,
			SpotID:       detail.SpotID,
			UserID:       detail.UserID,
			NumberOfRuns: detail.NumberOfRuns,
			Notes:        detail.Notes,
			DateLogged:   detail.DateLogged,
			CreatedAt:    detail.CreatedAt,
			SpotName:     detail.SpotName,
			SpotDistance: detail.SpotDistance,
		})
	}
	c.JSON(http.StatusOK, payload)
}

type createRunPayload struct {
	SpotID       string     `json:"spotId"`
	NumberOfRuns *int       `json:"numberOfRuns"`
	Notes        *string    `json:"notes"`
	DateLogged   *time.Time `json:"dateLogged"`
}

func (h *httpHandler) handleCreateRun(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	var request createRunPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if request.SpotID == "" || request.NumberOfRuns == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_required_fields"})
		return
	}

	run, err := h.runsService.Create(c.Request.Context(), userID, runs.NewRun{
		SpotID:       request.SpotID,
		NumberOfRuns: *request.NumberOfRuns,
		Notes:        request.Notes,
		DateLogged:   request.DateLogged,
	})
	switch {
	case errors.Is(err, runs.ErrInvalidLapCount), errors.Is(err, runs.ErrMissingSpotID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_run"})
		return
	case errors.Is(err, runs.ErrSpotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "spot_not_found"})
		return
	case err != nil:
		h.logger.Error("failed to create run", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run_create_failed"})
		return
	}

	c.JSON(http.StatusCreated, runResponsePayload{
		ID:           run.ID,
		SpotID:       run.SpotID,
		UserID:       run.UserID,
		NumberOfRuns: run.NumberOfRuns,
		Notes:        run.Notes,
		DateLogged:   run.DateLogged,
		CreatedAt:    run.CreatedAt,
	})
}

func (h *httpHandler) handleUserStats(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	summary, err := h.statsService.UserStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to compute stats", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
