package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/steepline/steepline/internal/users"
	"go.uber.org/zap"
)

type loginRequestPayload struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

type loginResponsePayload struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID, err := h.usersService.FindOrCreate(c.Request.Context(), users.LoginIdentity{
		Provider:   request.Provider,
		ProviderID: request.ProviderID,
		Email:      request.Email,
		Name:       request.Name,
	})
	if errors.Is(err, users.ErrInvalidIdentity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_required_fields"})
		return
	}
	if errors.Is(err, users.ErrUnknownProvider) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_auth_provider"})
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
		return
	}

	token, _, err := h.tokens.Issue(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponsePayload{Token: token, UserID: userID})
}

type profileResponsePayload struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	AuthProvider    string    `json:"authProvider"`
	IsPublicProfile bool      `json:"isPublicProfile"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	user, err := h.usersService.GetByID(c.Request.Context(), userID)
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load profile", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_load_failed"})
		return
	}

	c.JSON(http.StatusOK, profileResponsePayload{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		AuthProvider:    user.AuthProvider,
		IsPublicProfile: user.IsPublicProfile,
		CreatedAt:       user.CreatedAt,
	})
}

type updateProfilePayload struct {
	IsPublicProfile *bool `json:"isPublicProfile"`
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	var request updateProfilePayload
	if err := c.ShouldBindJSON(&request); err != nil || request.IsPublicProfile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.usersService.SetProfileVisibility(c.Request.Context(), userID, *request.IsPublicProfile); err != nil {
		h.logger.Error("failed to update profile visibility", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_update_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
