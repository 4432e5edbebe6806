// Package v1 provides the experimenter HTTP API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the experimenter routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/sessions", h.CreateSession)
	e.GET("/v1/sessions", h.ListSessions)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.GET("/v1/sessions/:session_id/trials", h.ListTrials)
	e.GET("/v1/sessions/:session_id/trials.tsv", h.ExportTrials)
	e.POST("/v1/sessions/:session_id/start", h.StartSession)
	e.POST("/v1/sessions/:session_id/simulate", h.SimulateSession)
	e.POST("/v1/sessions/:session_id/abort", h.AbortSession)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorResponse maps service errors onto status codes.
func errorResponse(c echo.Context, err error) error {
	var cfgErr *domain.ConfigurationError
	var policyErr *domain.PolicyError
	switch {
	case errors.As(err, &cfgErr):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":    "invalid configuration",
			"problems": cfgErr.Problems,
		})
	case errors.As(err, &policyErr):
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"error":   "blocked by policy",
			"reasons": policyErr.Reasons,
		})
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, domain.ErrSessionState):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
