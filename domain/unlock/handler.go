package unlock

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/borealgeo/arvault/pkg/apperror"
)

// Handler handles HTTP requests for document unlocking
type Handler struct {
	svc *Service
}

// NewHandler creates a new unlock handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Unlock removes usage restrictions from a stored document.
// POST /api/documents/unlock
func (h *Handler) Unlock(c echo.Context) error {
	var req UnlockRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithInternal(err)
	}

	result, err := h.svc.Unlock(c.Request().Context(), req.Path, req.Content)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, UnlockResponse{
		Path:     result.Path,
		Unlocked: result.Unlocked,
		Size:     result.Size,
	})
}
