package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/evreg/lottery-service/pkg/database"
	"github.com/evreg/lottery-service/pkg/redis"
	"github.com/gin-gonic/gin"
)

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db    *database.PostgresDB
	redis *redis.Client
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *database.PostgresDB, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

type componentStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ReadyResponse reports per-dependency readiness
type ReadyResponse struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]componentStatus `json:"components"`
}

// Health is the liveness probe: the process is up
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready is the readiness probe: every dependency answers
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := map[string]componentStatus{
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
	}

	status := "ready"
	code := http.StatusOK
	for _, cs := range components {
		if cs.Status != "healthy" {
			status = "not ready"
			code = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, ReadyResponse{
		Status:     status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) componentStatus {
	if h.db == nil {
		return componentStatus{Status: "not configured"}
	}
	if err := h.db.HealthCheck(ctx); err != nil {
		return componentStatus{Status: "unhealthy", Detail: err.Error()}
	}
	stats := h.db.Stats()
	return componentStatus{
		Status: "healthy",
		Detail: fmt.Sprintf("conns=%d/%d idle=%d", stats.AcquiredConns(), stats.MaxConns(), stats.IdleConns()),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) componentStatus {
	if h.redis == nil {
		return componentStatus{Status: "not configured"}
	}
	if err := h.redis.HealthCheck(ctx); err != nil {
		return componentStatus{Status: "unhealthy", Detail: err.Error()}
	}
	return componentStatus{Status: "healthy"}
}
