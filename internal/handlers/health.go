package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/recordbook/internal/database"
	apierrors "github.com/stwalsh4118/recordbook/internal/errors"
	"github.com/stwalsh4118/recordbook/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "1.0.0"
	// HealthCheckTimeout is the timeout for database health checks
	HealthCheckTimeout = 2 * time.Second
)

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        database.Pinger
	driver    string
	env       string
	startTime time.Time
	now       func() time.Time
}

// NewHealthHandler creates a new HealthHandler instance. driver names the
// record store reported by /health.
func NewHealthHandler(db database.Pinger, driver, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		driver:    driver,
		env:       env,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// HealthResponse represents the liveness response.
type HealthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Environment string  `json:"environment"`
	Uptime      float64 `json:"uptime"`
	Database    string  `json:"database"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	Database    string `json:"database"`
}

// Health handles GET /health. It never checks dependencies; uptime is in seconds.
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "OK",
		Timestamp:   now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Environment: h.env,
		Uptime:      now.Sub(h.startTime).Seconds(),
		Database:    h.driver,
	})
}

// Ready handles GET /health/ready. It answers 503 when the store does not
// respond to a ping within HealthCheckTimeout.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Database health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
				"driver":  h.driver,
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:   "not_ready",
			Database: "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status:   "ready",
		Database: "connected",
	})
}

// Info handles GET /api/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(h.now().Sub(h.startTime)),
		Database:    h.driver,
	})
}

// NoRoute answers unmatched routes with 404.
func NoRoute(c *gin.Context) {
	apierrors.NotFound(c, fmt.Sprintf("The requested route %s does not exist", c.Request.URL.RequestURI()))
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
