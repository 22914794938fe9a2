package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/steepline/steepline/internal/metrics"
	"github.com/steepline/steepline/internal/runs"
	"github.com/steepline/steepline/internal/spots"
	"github.com/steepline/steepline/internal/stats"
	"github.com/steepline/steepline/internal/users"
	"go.uber.org/zap"
)

const userIDContextKey = "steepline_user_id"

var (
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingUsersService  = errors.New("users service dependency required")
	errMissingSpotsService  = errors.New("spots service dependency required")
	errMissingRunsService   = errors.New("runs service dependency required")
	errMissingStatsService  = errors.New("stats service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates bearer credentials for rider accounts.
type TokenManager interface {
	Issue(ctx context.Context, userID string) (string, int64, error)
	Validate(token string) (string, error)
}

// Dependencies collects everything the HTTP layer needs.
type Dependencies struct {
	TokenManager   TokenManager
	UsersService   *users.Service
	SpotsService   *spots.Service
	RunsService    *runs.Service
	StatsService   *stats.Service
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewHTTPHandler wires the REST API routes onto a gin engine.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.UsersService == nil {
		return nil, errMissingUsersService
	}
	if deps.SpotsService == nil {
		return nil, errMissingSpotsService
	}
	if deps.RunsService == nil {
		return nil, errMissingRunsService
	}
	if deps.StatsService == nil {
		return nil, errMissingStatsService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	handler := &httpHandler{
		tokens:       deps.TokenManager,
		usersService: deps.UsersService,
		spotsService: deps.SpotsService,
		runsService:  deps.RunsService,
		statsService: deps.StatsService,
		logger:       logger,
	}

	router.GET("/health", handler.handleHealth)
	router.POST("/auth/login", handler.handleLogin)
	router.GET("/spots", handler.handleListSpots)
	router.GET("/spots/:id", handler.handleGetSpot)
	router.GET("/leaderboard", handler.handleLeaderboard)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/auth/me", handler.handleGetProfile)
	protected.PATCH("/auth/me", handler.handleUpdateProfile)
	protected.POST("/spots", handler.handleCreateSpot)
	protected.PUT("/spots/:id", handler.handleUpdateSpot)
	protected.DELETE("/spots/:id", handler.handleDeleteSpot)
	protected.GET("/runs/me", handler.handleListRuns)
	protected.POST("/runs", handler.handleCreateRun)
	protected.GET("/runs/me/stats", handler.handleUserStats)

	return router, nil
}

type httpHandler struct {
	tokens       TokenManager
	usersService *users.Service
	spotsService *spots.Service
	runsService  *runs.Service
	statsService *stats.Service
	logger       *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// authorizeRequest distinguishes a missing credential (401) from a presented
// but invalid or expired one (403).
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	userID, err := h.tokens.Validate(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid_token"})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}
