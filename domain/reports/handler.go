package reports

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/borealgeo/arvault/pkg/apperror"
)

// Handler handles HTTP requests for report retrieval
type Handler struct {
	svc *Service
}

// NewHandler creates a new reports handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Retrieve runs a retrieval job for one assessment report.
// POST /api/reports/retrieve
func (h *Handler) Retrieve(c echo.Context) error {
	var req RetrieveRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithInternal(err)
	}

	job := RetrievalJob{
		Jurisdiction: Jurisdiction(req.Jurisdiction),
		ReportID:     req.ReportID,
		Project:      req.Project,
	}

	result, err := h.svc.Retrieve(c.Request().Context(), job)
	if err != nil {
		return err
	}

	resp := RetrieveResponse{Downloaded: result.Downloaded}
	if result.Downloaded > 0 {
		resp.Message = fmt.Sprintf("Downloaded %d documents", result.Downloaded)
	} else {
		resp.Message = "Folders created. No documents downloaded."
	}

	return c.JSON(http.StatusOK, resp)
}
