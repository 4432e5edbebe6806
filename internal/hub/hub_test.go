package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConn(h *Hub, id, sessionID, role string) *Connection {
	return &Connection{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Send:      make(chan []byte, 8),
		hub:       h,
	}
}

func receive(t *testing.T, c *Connection) string {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return string(data)
	case <-time.After(time.Second):
		t.Fatalf("no message for %s", c.ID)
		return ""
	}
}

func TestBroadcastRespectsSessionAndRole(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	display := testConn(h, "d1", "s1", "display")
	monitor := testConn(h, "m1", "s1", "monitor")
	other := testConn(h, "d2", "s2", "display")
	h.Register(display)
	h.Register(monitor)
	h.Register(other)

	h.BroadcastRole("s1", "display", []byte("bar"))
	h.Broadcast("s1", []byte("notice"))

	assert.Equal(t, "bar", receive(t, display))
	assert.Equal(t, "notice", receive(t, display))
	assert.Equal(t, "notice", receive(t, monitor))

	h.Broadcast("s2", []byte("only-s2"))
	assert.Equal(t, "only-s2", receive(t, other))
	assert.Empty(t, monitor.Send)
}

func TestBindSessionMovesConnection(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	conn := testConn(h, "c1", "", "display")
	h.Register(conn)
	h.BindSession(conn, "s1", "monitor")

	assert.Eventually(t, func() bool { return h.HasActiveConnections("s1", "monitor") }, time.Second, time.Millisecond)
	assert.False(t, h.HasActiveConnections("s1", "display"))

	h.BindSession(conn, "s2", "display")
	assert.False(t, h.HasActiveConnections("s1", ""))
	assert.True(t, h.HasActiveConnections("s2", "display"))
	assert.Equal(t, 1, h.GetSessionCount())
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	conn := testConn(h, "c1", "s1", "display")
	h.Register(conn)
	h.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Equal(t, 0, h.GetConnectionCount())
	assert.Equal(t, 0, h.GetSessionCount())
}

func TestSendToConnectionReportsFullBuffer(t *testing.T) {
	h := NewHub(nil)
	conn := &Connection{ID: "c1", Send: make(chan []byte, 1)}

	require.NoError(t, h.SendToConnection(conn, []byte("a")))
	assert.ErrorIs(t, h.SendToConnection(conn, []byte("b")), ErrBufferFull)
}
