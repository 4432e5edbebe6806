// Package http provides the HTTP servers of the OSARI service.
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/IngeLeu/OSARI/internal/hub"
	"github.com/IngeLeu/OSARI/internal/service"
	v1 "github.com/IngeLeu/OSARI/internal/transport/http/v1"
	"github.com/IngeLeu/OSARI/internal/ws"
)

// NewAPIServer creates the experimenter-facing server: the v1 session API
// and the monitor websocket.
func NewAPIServer(svc *service.Service, wsServer *ws.Server, logger *log.Logger) *echo.Echo {
	e := newEcho(logger)
	e.Use(middleware.CORS())

	v1.NewHandler(svc).RegisterRoutes(e)
	e.GET("/monitor", wsServer.HandleMonitor)

	return e
}

// NewDisplayServer creates the participant-facing websocket server.
func NewDisplayServer(wsServer *ws.Server, h *hub.Hub, logger *log.Logger) *echo.Echo {
	e := newEcho(logger)

	e.GET("/ws", wsServer.HandleDisplay)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":      "healthy",
			"connections": h.GetConnectionCount(),
			"sessions":    h.GetSessionCount(),
		})
	})

	return e
}

func newEcho(logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if logger != nil {
		e.Logger = logger
	}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	return e
}
