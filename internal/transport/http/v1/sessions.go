package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/IngeLeu/OSARI/internal/service"
)

// CreateSession validates and stores a new session.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	session, err := h.service.CreateSession(ctx, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, session)
}

// ListSessions lists recent sessions.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	sessions, err := h.service.ListSessions(c.Request().Context(), limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

// GetSession returns one session, its summary included once it has ended.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	session, err := h.service.GetSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// ListTrials returns the stored trial records of a session.
// GET /v1/sessions/:session_id/trials
func (h *Handler) ListTrials(c echo.Context) error {
	trials, err := h.service.ListTrials(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"trials": trials,
	})
}

// ExportTrials returns the records in the tab-separated record format.
// GET /v1/sessions/:session_id/trials.tsv
func (h *Handler) ExportTrials(c echo.Context) error {
	tsv, err := h.service.TrialsTSV(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Blob(http.StatusOK, "text/tab-separated-values; charset=utf-8", []byte(tsv))
}

// StartSession runs a session against the participant display.
// POST /v1/sessions/:session_id/start
func (h *Handler) StartSession(c echo.Context) error {
	session, err := h.service.StartSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusAccepted, session)
}

// SimulateSession runs a session with a simulated participant.
// POST /v1/sessions/:session_id/simulate
func (h *Handler) SimulateSession(c echo.Context) error {
	var req service.SimulateRequest
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}
	}

	session, err := h.service.SimulateSession(c.Request().Context(), c.Param("session_id"), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusAccepted, session)
}

// AbortSession stops a running session, or cancels one that never started.
// POST /v1/sessions/:session_id/abort
func (h *Handler) AbortSession(c echo.Context) error {
	session, err := h.service.AbortSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session)
}
