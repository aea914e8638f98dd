package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"yt-notify/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Service      string            `json:"service"`
	Channels     int               `json:"channels"`
	Dependencies map[string]string `json:"dependencies"`
}

// Check handles GET /health. Optional backends that fail their ping mark the
// service as degraded; the endpoint still answers 200 because channels work
// without them.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	logger.Debug("Health check requested")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		Version:      "1.0.0",
		Service:      "yt-notify",
		Channels:     len(h.container.GetHub().List()),
		Dependencies: map[string]string{},
	}

	if client := h.container.GetRedisClient(); client != nil {
		response.Dependencies["redis"] = "up"
		if err := client.Health(ctx); err != nil {
			logger.WithError(err).Warn("Redis health check failed")
			response.Dependencies["redis"] = "down"
			response.Status = "degraded"
		}
	} else {
		response.Dependencies["redis"] = "disabled"
	}

	if h.container.DB != nil {
		response.Dependencies["database"] = "up"
		if err := h.container.DB.Health(ctx); err != nil {
			logger.WithError(err).Warn("Database health check failed")
			response.Dependencies["database"] = "down"
			response.Status = "degraded"
		}
	} else {
		response.Dependencies["database"] = "disabled"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode health check response")
		return
	}

	logger.Debug("Health check completed successfully")
}
