package unlock

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers document unlock routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/documents")

	g.POST("/unlock", h.Unlock)
}
