// Package handler exposes the HTTP admin surface: health, stats and a
// live websocket feed of moderation and matching events.
package handler

import (
	"net/http"

	"randomchat/backend/internal/config"
	"randomchat/backend/internal/moderation"
	"randomchat/backend/internal/storage"
	"randomchat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler carries the dependencies of the admin API endpoints.
type Handler struct {
	Storage     *storage.Service
	Moderation  *moderation.Service
	JWTSecret   []byte
	AdminAPIKey string
}

func NewHandler(store *storage.Service, moderationSvc *moderation.Service, cfg *config.Config) *Handler {
	return &Handler{
		Storage:     store,
		Moderation:  moderationSvc,
		JWTSecret:   []byte(cfg.JWTSecret),
		AdminAPIKey: cfg.AdminAPIKey,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/api/token", h.IssueToken)

	authed := r.Group("/", h.RequireToken())
	authed.GET("/api/stats", h.GetStats)
	authed.GET("/ws/events", h.ServeEventFeed)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStats serves the same aggregate snapshot the bot's /stats shows.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.Moderation.Snapshot(c.Request.Context())
	if err != nil {
		logger.Error("stats query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
