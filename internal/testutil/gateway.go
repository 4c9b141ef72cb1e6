package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftline/go-sdk/pkg/core/events"
	"github.com/driftline/go-sdk/pkg/models"
)

// waitTimeout bounds every blocking wait on the mock gateway.
const waitTimeout = 5 * time.Second

// Gateway is an in-process Driftline gateway. Each accepted WebSocket
// connection surfaces as a Conn that the test drives explicitly.
type Gateway struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	accepted int
	pending  chan *Conn
}

// NewGateway starts a gateway server. It shuts down with the test.
func NewGateway(t *testing.T) *Gateway {
	t.Helper()

	g := &Gateway{
		t:       t,
		pending: make(chan *Conn, 16),
	}

	upgrader := websocket.Upgrader{}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("gateway upgrade failed: %v", err)
			return
		}

		conn := newConn(t, ws)
		g.mu.Lock()
		g.accepted++
		g.mu.Unlock()
		g.pending <- conn
	}))
	t.Cleanup(g.server.Close)

	return g
}

// URL returns the ws:// address clients dial.
func (g *Gateway) URL() string {
	return "ws" + strings.TrimPrefix(g.server.URL, "http")
}

// Accept returns the next accepted connection, failing the test if none
// arrives in time.
func (g *Gateway) Accept() *Conn {
	g.t.Helper()

	select {
	case conn := <-g.pending:
		return conn
	case <-time.After(waitTimeout):
		g.t.Fatal("timed out waiting for a gateway connection")
		return nil
	}
}

// AcceptAndReady accepts the next connection and serves the standard
// handshake: it consumes the Authenticate frame, replies Authenticated, and
// delivers Ready with the given snapshot.
func (g *Gateway) AcceptAndReady(users []*models.User, channels []*models.Channel) *Conn {
	g.t.Helper()

	conn := g.Accept()
	conn.WaitAuthenticate()
	conn.Send(events.NewAuthenticatedEvent())
	conn.Send(events.NewReadyEvent(users, channels))
	return conn
}

// Accepted returns how many connections the gateway has seen.
func (g *Gateway) Accepted() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accepted
}

// Conn is one accepted gateway-side connection.
type Conn struct {
	t  *testing.T
	ws *websocket.Conn

	frames chan []byte
	done   chan struct{}
}

func newConn(t *testing.T, ws *websocket.Conn) *Conn {
	c := &Conn{
		t:      t,
		ws:     ws,
		frames: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.frames <- data
	}
}

// WaitFrame returns the next raw frame sent by the client.
func (c *Conn) WaitFrame() []byte {
	c.t.Helper()

	select {
	case data := <-c.frames:
		return data
	case <-time.After(waitTimeout):
		c.t.Fatal("timed out waiting for a client frame")
		return nil
	}
}

// WaitAuthenticate returns the client's next frame decoded as an
// Authenticate notification.
func (c *Conn) WaitAuthenticate() *events.AuthenticateEvent {
	c.t.Helper()

	event, err := events.EventFromJSON(c.WaitFrame())
	if err != nil {
		c.t.Fatalf("failed to decode client frame: %v", err)
	}
	auth, ok := event.(*events.AuthenticateEvent)
	if !ok {
		c.t.Fatalf("client sent %s, want Authenticate", event.Type())
	}
	return auth
}

// Send delivers a notification to the client as a text frame.
func (c *Conn) Send(event events.Event) {
	c.t.Helper()

	data, err := event.ToJSON()
	if err != nil {
		c.t.Fatalf("failed to encode %s notification: %v", event.Type(), err)
	}
	c.SendRaw(data)
}

// SendRaw delivers a raw text frame to the client.
func (c *Conn) SendRaw(data []byte) {
	c.t.Helper()

	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.t.Fatalf("failed to write frame: %v", err)
	}
}

// Close ends the connection with a normal close handshake.
func (c *Conn) Close() {
	deadline := time.Now().Add(time.Second)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = c.ws.Close()
}

// Drop kills the underlying TCP connection without a close frame, simulating
// an unexpected network failure.
func (c *Conn) Drop() {
	_ = c.ws.UnderlyingConn().Close()
}

// WaitClosed blocks until the client side has closed the connection.
func (c *Conn) WaitClosed() {
	c.t.Helper()

	select {
	case <-c.done:
	case <-time.After(waitTimeout):
		c.t.Fatal("timed out waiting for the client to close the connection")
	}
}
