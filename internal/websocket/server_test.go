package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)
	return log
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(nil, testLogger(t))
	srv := httptest.NewServer(http.HandlerFunc(s.HandleConnection))
	t.Cleanup(srv.Close)
	return s, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesAllClients(t *testing.T) {
	s, srv := newTestServer(t)
	first := dial(t, srv)
	second := dial(t, srv)

	require.Eventually(t, func() bool { return s.ClientCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	s.Broadcast(Message{
		Type:      TypeReply,
		SessionID: "s-1",
		Data:      map[string]string{"text": "Easy 113, roger."},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, TypeReply, msg.Type)
		assert.Equal(t, "s-1", msg.SessionID)
		assert.False(t, msg.Timestamp.IsZero())
		data, ok := msg.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "Easy 113, roger.", data["text"])
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	s := NewServer(nil, testLogger(t))

	// Register a client by hand, with no pumps draining its buffer, so
	// the drop path is hit deterministically.
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	dial(t, srv)
	serverConn := <-connCh
	t.Cleanup(func() { serverConn.Close() })

	c := &client{conn: serverConn, send: make(chan []byte, sendBufferSize)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	for i := 0; i <= sendBufferSize; i++ {
		s.Broadcast(Message{Type: TypeStateChange})
	}

	assert.Equal(t, 0, s.ClientCount())

	// A second removal of the same client must not close the channel twice.
	s.remove(c)
}

func TestCloseDisconnectsClients(t *testing.T) {
	s, srv := newTestServer(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return s.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	s.Close()
	assert.Equal(t, 0, s.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestOriginChecker(t *testing.T) {
	withOrigin := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	anyOrigin := originChecker(nil)
	assert.True(t, anyOrigin(withOrigin("http://evil.example")))

	wildcard := originChecker([]string{"*"})
	assert.True(t, wildcard(withOrigin("http://evil.example")))

	pinned := originChecker([]string{"http://localhost:8080"})
	assert.True(t, pinned(withOrigin("http://localhost:8080")))
	assert.False(t, pinned(withOrigin("http://evil.example")))
	assert.True(t, pinned(withOrigin("")))
}
