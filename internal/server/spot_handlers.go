package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/steepline/steepline/internal/spots"
	"go.uber.org/zap"
)

type spotResponsePayload struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DistanceMeters float64   `json:"distanceMeters"`
	Description    *string   `json:"description"`
	CreatorUserID  *string   `json:"creatorUserId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type spotDetailPayload struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DistanceMeters float64   `json:"distanceMeters"`
	Description    *string   `json:"description"`
	CreatorUserID  *string   `json:"creatorUserId"`
	CreatorName    *string   `json:"creatorName"`
	CreatedAt      time.Time `json:"createdAt"`
}

func spotDetailToPayload(detail spots.SpotDetail) spotDetailPayload {
	return spotDetailPayload{
		ID:             detail.ID,
		Name:           detail.Name,
		DistanceMeters: detail.DistanceMeters,
		Description:    detail.Description,
		CreatorUserID:  detail.CreatorUserID,
		CreatorName:    detail.CreatorName,
		CreatedAt:      detail.CreatedAt,
	}
}

func spotToPayload(spot spots.Spot) spotResponsePayload {
	return spotResponsePayload{
		ID:             spot.ID,
		Name:           spot.Name,
		DistanceMeters: spot.DistanceMeters,
		Description:    spot.Description,
		CreatorUserID:  spot.CreatorUserID,
		CreatedAt:      spot.CreatedAt,
	}
}

func (h *httpHandler) handleListSpots(c *gin.Context) {
	details, err := h.spotsService.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list spots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spot_list_failed"})
		return
	}

	payload := make([]spotDetailPayload, 0, len(details))
	for _, detail := range details {
		payload = append(payload, spotDetailToPayload(detail))
	}
	c.JSON(http.StatusOK, payload)
}

func (h *httpHandler) handleGetSpot(c *gin.Context) {
	detail, err := h.spotsService.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, spots.ErrSpotNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "spot_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load spot", zap.Error(err), zap.String("spot_id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spot_load_failed"})
		return
	}
	c.JSON(http.StatusOK, spotDetailToPayload(detail))
}

type createSpotPayload struct {
	Name           string   `json:"name"`
	DistanceMeters *float64 `json:"distanceMeters"`
	Description    *string  `json:"description"`
}

func (h *httpHandler) handleCreateSpot(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	var request createSpotPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if request.Name == "" || request.DistanceMeters == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_required_fields"})
		return
	}

	spot, err := h.spotsService.Create(c.Request.Context(), userID, request.Name, *request.DistanceMeters, request.Description)
	if errors.Is(err, spots.ErrInvalidName) || errors.Is(err, spots.ErrInvalidDistance) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_spot"})
		return
	}
	if err != nil {
		h.logger.Error("failed to create spot", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spot_create_failed"})
		return
	}

	c.JSON(http.StatusCreated, spotToPayload(spot))
}

type updateSpotPayload struct {
	Name           *string  `json:"name"`
	DistanceMeters *float64 `json:"distanceMeters"`
	Description    *string  `json:"description"`
}

func (h *httpHandler) handleUpdateSpot(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	spotID := c.Param("id")

	var request updateSpotPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	spot, err := h.spotsService.Update(c.Request.Context(), spotID, userID, spots.SpotPatch{
		Name:           request.Name,
		DistanceMeters: request.DistanceMeters,
		Description:    request.Description,
	})
	switch {
	case errors.Is(err, spots.ErrSpotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "spot_not_found"})
		return
	case errors.Is(err, spots.ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_spot_creator"})
		return
	case errors.Is(err, spots.ErrInvalidDistance):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_distance"})
		return
	case errors.Is(err, spots.ErrEmptyUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_fields_to_update"})
		return
	case err != nil:
		h.logger.Error("failed to update spot", zap.Error(err), zap.String("spot_id", spotID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spot_update_failed"})
		return
	}

	c.JSON(http.StatusOK, spotToPayload(spot))
}

func (h *httpHandler) handleDeleteSpot(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	spotID := c.Param("id")

	err := h.spotsService.Delete(c.Request.Context(), spotID, userID)
	switch {
	case errors.Is(err, spots.ErrSpotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "spot_not_found"})
		return
	case errors.Is(err, spots.ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_spot_creator"})
		return
	case err != nil:
		h.logger.Error("failed to delete spot", zap.Error(err), zap.String("spot_id", spotID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spot_delete_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
