// Package ws provides the WebSocket server for participant displays and
// experimenter monitors.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/IngeLeu/OSARI/internal/config"
	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/hub"
	"github.com/IngeLeu/OSARI/internal/logging"
	"github.com/IngeLeu/OSARI/internal/protocol"
)

// KeySink receives the key events of a display.
type KeySink interface {
	Press(key domain.Key)
	Release(key domain.Key)
}

// Sessions resolves the input of a running session. *service.Service
// implements it.
type Sessions interface {
	SessionKeys(sessionID string) (KeySink, bool)
}

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	sessions Sessions
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, sessions Sessions, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		cfg:      cfg,
		hub:      h,
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The display is served from a local file or another port.
				return true
			},
		},
	}
}

// HandleDisplay upgrades a participant display connection.
func (s *Server) HandleDisplay(c echo.Context) error {
	return s.handle(c, protocol.RoleDisplay)
}

// HandleMonitor upgrades an experimenter monitor connection. Monitors only
// receive; their key messages are rejected.
func (s *Server) HandleMonitor(c echo.Context) error {
	return s.handle(c, protocol.RoleMonitor)
}

func (s *Server) handle(c echo.Context, role string) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Errorf("failed to upgrade websocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	conn.Role = role
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warnf("websocket error: %v", err)
			}
			break
		}
		// Any traffic keeps the connection alive.
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warnf("failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var baseMsg protocol.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case protocol.TypeHello:
		s.handleHello(conn, data)
	case protocol.TypeKey:
		s.handleKey(conn, data)
	default:
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

// handleHello binds the connection to a session.
func (s *Server) handleHello(conn *hub.Connection, data []byte) {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid hello message")
		return
	}
	if msg.SessionID == "" {
		s.sendError(conn, protocol.ErrorCodeSessionRequired, "session_id is required")
		return
	}

	// A display endpoint may host a monitor, never the other way round.
	role := conn.Role
	if msg.Role == protocol.RoleMonitor {
		role = protocol.RoleMonitor
	}

	s.hub.BindSession(conn, msg.SessionID, role)

	ack := protocol.HelloAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			SessionID: msg.SessionID,
		},
		Role: role,
	}
	s.hub.SendJSONToConnection(conn, ack)

	s.logger.Infof("%s attached to session %s", role, msg.SessionID)
}

// handleKey forwards a key event to the running session.
func (s *Server) handleKey(conn *hub.Connection, data []byte) {
	var msg protocol.KeyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid key message")
		return
	}
	if conn.SessionID == "" {
		s.sendError(conn, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}
	if conn.Role != protocol.RoleDisplay {
		s.sendError(conn, protocol.ErrorCodeForbidden, "only the display may send keys")
		return
	}
	if msg.Key == "" {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "key is required")
		return
	}

	keys, ok := s.sessions.SessionKeys(conn.SessionID)
	if !ok {
		s.sendError(conn, protocol.ErrorCodeNotRunning, "session is not running")
		return
	}

	switch msg.Action {
	case protocol.KeyPress:
		keys.Press(domain.Key(msg.Key))
	case protocol.KeyRelease:
		keys.Release(domain.Key(msg.Key))
	default:
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "action must be press or release")
	}
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *hub.Connection, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			SessionID: conn.SessionID,
		},
		Code:    code,
		Message: message,
	}
	s.hub.SendJSONToConnection(conn, errMsg)
}
