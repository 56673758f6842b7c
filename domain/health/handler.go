package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/borealgeo/arvault/internal/config"
	"github.com/borealgeo/arvault/internal/storage"
	"github.com/borealgeo/arvault/internal/version"
)

// Handler handles health check requests
type Handler struct {
	store   *storage.Client
	cfg     *config.Config
	startAt time.Time
}

// NewHandler creates a new health handler
func NewHandler(store *storage.Client, cfg *config.Config) *Handler {
	return &Handler{
		store:   store,
		cfg:     cfg,
		startAt: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// storageCheck probes the remote store. A server without store credentials
// reports "disabled" and stays healthy: retrieval jobs will fail loudly on
// their own, the probe should not flap deployments over it.
func (h *Handler) storageCheck(ctx context.Context) Check {
	if !h.cfg.Storage.Enabled() {
		return Check{Status: "disabled", Message: "store credentials not configured"}
	}
	if err := h.store.GetMetadata(ctx, h.cfg.Storage.Root); err != nil {
		return Check{Status: "unhealthy", Message: err.Error()}
	}
	return Check{Status: "healthy"}
}

// Health returns the overall service health
// @Summary      Get service health
// @Description  Returns detailed health status including remote store connectivity and system uptime
// @Tags         health
// @Accept       json
// @Produce      json
// @Success      200 {object} HealthResponse "Service is healthy"
// @Success      503 {object} HealthResponse "Service is unhealthy"
// @Router       /health [get]
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	store := h.storageCheck(ctx)

	overallStatus := "healthy"
	if store.Status == "unhealthy" {
		overallStatus = "unhealthy"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startAt).String(),
		Version:   version.Version,
		Checks: map[string]Check{
			"storage": store,
		},
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, response)
}

// Healthz returns a simple health check (for k8s liveness probe)
// @Summary      Liveness probe
// @Description  Simple health check endpoint for Kubernetes liveness probes
// @Tags         health
// @Produce      plain
// @Success      200 {string} string "OK"
// @Router       /healthz [get]
func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Ready returns readiness status (for k8s readiness probe)
// @Summary      Readiness probe
// @Description  Returns readiness status based on remote store connectivity (for Kubernetes readiness probes)
// @Tags         health
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]any "Service is ready"
// @Success      503 {object} map[string]any "Service is not ready"
// @Router       /ready [get]
func (h *Handler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if check := h.storageCheck(ctx); check.Status == "unhealthy" {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":  "not_ready",
			"message": "Remote store connection failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// Debug returns debug information (only in development)
// @Summary      Get debug information
// @Description  Returns debug information including memory stats (development only)
// @Tags         health
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]any "Debug information"
// @Failure      404 {object} map[string]any "Not found in production"
// @Router       /debug [get]
func (h *Handler) Debug(c echo.Context) error {
	if h.cfg.Environment == "production" {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(http.StatusOK, map[string]any{
		"environment": h.cfg.Environment,
		"debug":       h.cfg.Debug,
		"go_version":  runtime.Version(),
		"goroutines":  runtime.NumGoroutine(),
		"memory": map[string]any{
			"alloc_mb":       mem.Alloc / 1024 / 1024,
			"total_alloc_mb": mem.TotalAlloc / 1024 / 1024,
			"sys_mb":         mem.Sys / 1024 / 1024,
			"num_gc":         mem.NumGC,
		},
		"storage": map[string]any{
			"configured": h.cfg.Storage.Enabled(),
			"api_url":    h.cfg.Storage.APIURL,
			"root":       h.cfg.Storage.Root,
		},
	})
}

// Index describes the service's endpoints for humans hitting the root URL.
// GET /
func (h *Handler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "arvault",
		"version": version.Version,
		"endpoints": map[string]string{
			"POST /api/reports/retrieve": "acquire one assessment report's documents into the store",
			"POST /api/documents/unlock": "remove usage restrictions from a stored document",
			"GET /health":                "detailed health status",
			"GET /healthz":               "liveness probe",
			"GET /ready":                 "readiness probe",
			"GET /metrics":               "prometheus metrics",
		},
	})
}
