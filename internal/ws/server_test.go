package ws

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IngeLeu/OSARI/internal/config"
	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/hub"
	"github.com/IngeLeu/OSARI/internal/presentation"
	"github.com/IngeLeu/OSARI/internal/protocol"
)

type keyEvent struct {
	key   domain.Key
	press bool
}

type fakeKeys struct {
	mu     sync.Mutex
	events []keyEvent
}

func (f *fakeKeys) Press(key domain.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, keyEvent{key, true})
}

func (f *fakeKeys) Release(key domain.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, keyEvent{key, false})
}

func (f *fakeKeys) Events() []keyEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]keyEvent(nil), f.events...)
}

type fakeSessions map[string]*fakeKeys

func (f fakeSessions) SessionKeys(id string) (KeySink, bool) {
	k, ok := f[id]
	return k, ok
}

type testServer struct {
	hub  *hub.Hub
	keys *fakeKeys
	url  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		PingInterval:   time.Minute,
		WriteTimeout:   time.Second,
		ReadTimeout:    time.Minute,
		MaxMessageSize: 4096,
	}
	h := hub.NewHub(nil)
	go h.Run()

	keys := &fakeKeys{}
	srv := NewServer(cfg, h, fakeSessions{"sess_live": keys}, nil)

	e := echo.New()
	e.GET("/ws", srv.HandleDisplay)
	e.GET("/monitor", srv.HandleMonitor)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	return &testServer{hub: h, keys: keys, url: "ws" + strings.TrimPrefix(ts.URL, "http")}
}

func (s *testServer) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(s.url+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func read(t *testing.T, c *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, c.ReadJSON(&msg))
	return msg
}

func hello(t *testing.T, c *websocket.Conn, sessionID, role string) map[string]interface{} {
	t.Helper()
	require.NoError(t, c.WriteJSON(map[string]string{"type": "hello", "session_id": sessionID, "role": role}))
	return read(t, c)
}

func TestDisplayKeysReachSession(t *testing.T) {
	s := newTestServer(t)
	c := s.dial(t, "/ws")

	ack := hello(t, c, "sess_live", "")
	assert.Equal(t, protocol.TypeHelloAck, ack["type"])
	assert.Equal(t, protocol.RoleDisplay, ack["role"])

	require.NoError(t, c.WriteJSON(map[string]string{"type": "key", "key": "space", "action": "press"}))
	require.NoError(t, c.WriteJSON(map[string]string{"type": "key", "key": "space", "action": "release"}))

	assert.Eventually(t, func() bool { return len(s.keys.Events()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []keyEvent{{domain.KeySpace, true}, {domain.KeySpace, false}}, s.keys.Events())
}

func TestKeyBeforeHelloIsRejected(t *testing.T) {
	s := newTestServer(t)
	c := s.dial(t, "/ws")

	require.NoError(t, c.WriteJSON(map[string]string{"type": "key", "key": "space", "action": "press"}))
	msg := read(t, c)
	assert.Equal(t, protocol.TypeError, msg["type"])
	assert.Equal(t, protocol.ErrorCodeSessionRequired, msg["code"])
}

func TestKeyForIdleSessionIsRejected(t *testing.T) {
	s := newTestServer(t)
	c := s.dial(t, "/ws")
	hello(t, c, "sess_idle", "display")

	require.NoError(t, c.WriteJSON(map[string]string{"type": "key", "key": "space", "action": "press"}))
	msg := read(t, c)
	assert.Equal(t, protocol.ErrorCodeNotRunning, msg["code"])
}

func TestMonitorCannotSendKeys(t *testing.T) {
	s := newTestServer(t)
	c := s.dial(t, "/monitor")

	ack := hello(t, c, "sess_live", "display")
	assert.Equal(t, protocol.RoleMonitor, ack["role"])

	require.NoError(t, c.WriteJSON(map[string]string{"type": "key", "key": "space", "action": "press"}))
	msg := read(t, c)
	assert.Equal(t, protocol.ErrorCodeForbidden, msg["code"])
	assert.Empty(t, s.keys.Events())
}

func TestUnknownMessageType(t *testing.T) {
	s := newTestServer(t)
	c := s.dial(t, "/ws")

	require.NoError(t, c.WriteJSON(map[string]string{"type": "bogus"}))
	msg := read(t, c)
	assert.Equal(t, protocol.ErrorCodeInvalidMessage, msg["code"])
}

func TestSurfaceRoutesDrawCommandsToDisplay(t *testing.T) {
	s := newTestServer(t)
	display := s.dial(t, "/ws")
	monitor := s.dial(t, "/monitor")
	hello(t, display, "sess_live", "")
	hello(t, monitor, "sess_live", "")

	surface := NewSurface(s.hub, "sess_live")
	surface.SetBarHeight(0.5, presentation.BarGeometry(0.5, domain.BarLayout{HeightCM: 15, WidthCM: 3}, 0.8))
	surface.ShowNotice(presentation.Notice{Kind: presentation.NoticeBlockComplete, Block: 1, Blocks: 3})

	bar := read(t, display)
	assert.Equal(t, protocol.TypeBar, bar["type"])
	assert.InDelta(t, 0.5, bar["fraction"], 1e-9)

	notice := read(t, display)
	assert.Equal(t, protocol.TypeNotice, notice["type"])
	assert.Equal(t, "block_complete", notice["kind"])
	assert.Contains(t, notice["text"], "Block 1 of 3")

	// The monitor never sees the bar.
	first := read(t, monitor)
	assert.Equal(t, protocol.TypeNotice, first["type"])
}
