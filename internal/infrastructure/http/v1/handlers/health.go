package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"salesync/internal/relay"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	hub     *relay.Hub
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(hub *relay.Hub) *HealthHandler {
	return &HealthHandler{hub: hub, started: time.Now()}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe. The store is in-memory, so readiness only
// means the process is serving.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":            "salesync",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"sessions":       h.hub.Len(),
	})
}
