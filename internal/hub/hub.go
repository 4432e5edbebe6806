// Package hub provides connection management for WebSocket clients.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"

	"github.com/IngeLeu/OSARI/internal/logging"
)

// Connection represents a single WebSocket connection.
type Connection struct {
	ID        string
	SessionID string
	Role      string
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
	mu        sync.Mutex
}

// Hub manages all WebSocket connections.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Sessions maps session_id to set of connection IDs
	sessions map[string]map[string]bool

	// Channels for registration/unregistration
	register   chan *Connection
	unregister chan *Connection

	// Broadcast channel for sending to specific session
	broadcast chan *SessionMessage

	logger *log.Logger
	mu     sync.RWMutex
}

// SessionMessage is used to broadcast a message to a session. An empty Role
// reaches every connection of the session.
type SessionMessage struct {
	SessionID string
	Role      string
	Data      []byte
}

// NewHub creates a new Hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *SessionMessage, 256),
		logger:      logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if conn.SessionID != "" {
				h.addToSession(conn)
			}
			h.mu.Unlock()
			h.logger.Debugf("connection registered: %s (session: %s)", conn.ID, conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				h.removeFromSession(conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			h.logger.Debugf("connection unregistered: %s", conn.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for connID := range h.sessions[msg.SessionID] {
				conn, exists := h.connections[connID]
				if !exists || (msg.Role != "" && conn.Role != msg.Role) {
					continue
				}
				select {
				case conn.Send <- msg.Data:
				default:
					// Buffer full, close the connection
					h.logger.Warnf("connection %s buffer full, closing", connID)
					go h.Unregister(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) addToSession(conn *Connection) {
	if h.sessions[conn.SessionID] == nil {
		h.sessions[conn.SessionID] = make(map[string]bool)
	}
	h.sessions[conn.SessionID][conn.ID] = true
}

func (h *Hub) removeFromSession(conn *Connection) {
	if conn.SessionID == "" || h.sessions[conn.SessionID] == nil {
		return
	}
	delete(h.sessions[conn.SessionID], conn.ID)
	if len(h.sessions[conn.SessionID]) == 0 {
		delete(h.sessions, conn.SessionID)
	}
}

// NewConnection creates a new connection. It still has to be registered.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		Conn: ws,
		Send: make(chan []byte, 256),
		hub:  h,
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BindSession binds a connection to a session in the given role.
func (h *Hub) BindSession(conn *Connection, sessionID, role string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromSession(conn)
	conn.SessionID = sessionID
	conn.Role = role
	h.addToSession(conn)
}

// Broadcast sends a message to all connections of a session.
func (h *Hub) Broadcast(sessionID string, data []byte) {
	h.broadcast <- &SessionMessage{SessionID: sessionID, Data: data}
}

// BroadcastRole sends a message to the connections of a session bound in role.
func (h *Hub) BroadcastRole(sessionID, role string, data []byte) {
	h.broadcast <- &SessionMessage{SessionID: sessionID, Role: role, Data: data}
}

// BroadcastJSON sends a JSON message to all connections of a session.
func (h *Hub) BroadcastJSON(sessionID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(sessionID, data)
	return nil
}

// BroadcastRoleJSON sends a JSON message to one role of a session.
func (h *Hub) BroadcastRoleJSON(sessionID, role string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.BroadcastRole(sessionID, role, data)
	return nil
}

// SendToConnection sends a message to a specific connection.
func (h *Hub) SendToConnection(conn *Connection, data []byte) error {
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// SendJSONToConnection sends a JSON message to a specific connection.
func (h *Hub) SendJSONToConnection(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.SendToConnection(conn, data)
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GetSessionCount returns the number of sessions with at least one connection.
func (h *Hub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// HasActiveConnections checks if a session has any connection in role, or
// any connection at all when role is empty.
func (h *Hub) HasActiveConnections(sessionID, role string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.sessions[sessionID] {
		if conn, ok := h.connections[connID]; ok && (role == "" || conn.Role == role) {
			return true
		}
	}
	return false
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}

// ErrBufferFull is returned when the send buffer is full.
var ErrBufferFull = &BufferFullError{}

// BufferFullError represents a buffer full error.
type BufferFullError struct{}

func (e *BufferFullError) Error() string {
	return "send buffer full"
}
