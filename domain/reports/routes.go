package reports

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers report retrieval routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/reports")

	// Acquire one report's documents into the store
	g.POST("/retrieve", h.Retrieve)
}
