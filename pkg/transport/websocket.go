package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftline/go-sdk/pkg/core"
)

// closeGracePeriod bounds the close handshake when tearing a connection
// down locally.
const closeGracePeriod = time.Second

// Callbacks receive transport events. All callbacks are optional and run on
// the transport's read goroutine; they must not block.
type Callbacks struct {
	// OnOpen fires once the connection is established, before any OnMessage.
	OnOpen func()

	// OnMessage fires for every inbound text frame.
	OnMessage func(data []byte)

	// OnError fires when the connection fails, before OnClose.
	OnError func(err error)

	// OnClose fires exactly once when the connection ends. err is nil for a
	// clean closure (locally initiated, or a normal close from the server)
	// and a *core.CloseError otherwise.
	OnClose func(err error)
}

// Transport is a single established gateway connection.
type Transport interface {
	// Send writes one text frame. Sending on a closed transport returns
	// core.ErrConnectionClosed.
	Send(data []byte) error

	// Close tears the connection down. Safe to call multiple times.
	Close() error
}

// webSocket is the gorilla/websocket implementation of Transport.
type webSocket struct {
	conn      *websocket.Conn
	callbacks Callbacks

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

var _ Transport = (*webSocket)(nil)

// Dial connects to the gateway at rawURL and starts delivering frames to the
// callbacks. The context bounds the dial only; the established connection
// lives until Close or a transport failure.
func Dial(ctx context.Context, rawURL string, callbacks Callbacks) (Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &core.ConfigError{
			Field: "URL",
			Value: rawURL,
			Err:   fmt.Errorf("invalid gateway URL: %w", err),
		}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, &core.ConfigError{
			Field: "URL",
			Value: rawURL,
			Err:   errors.New("gateway URL scheme must be ws or wss"),
		}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing gateway %s: %w", u.Host, err)
	}

	t := &webSocket{
		conn:      conn,
		callbacks: callbacks,
		closed:    make(chan struct{}),
	}

	if callbacks.OnOpen != nil {
		callbacks.OnOpen()
	}
	go t.readLoop()

	return t, nil
}

// Send writes one text frame.
func (t *webSocket) Send(data []byte) error {
	select {
	case <-t.closed:
		return core.ErrConnectionClosed
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close performs a best-effort close handshake and tears the connection
// down. The read loop observes the closure and fires OnClose with a nil
// error.
func (t *webSocket) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		deadline := time.Now().Add(closeGracePeriod)
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// readLoop delivers inbound frames until the connection ends, then reports
// the closure.
func (t *webSocket) readLoop() {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			t.finish(err)
			return
		}
		// The gateway speaks text frames only.
		if kind != websocket.TextMessage {
			continue
		}
		if t.callbacks.OnMessage != nil {
			t.callbacks.OnMessage(data)
		}
	}
}

// finish maps the read error to a close reason and fires the terminal
// callbacks.
func (t *webSocket) finish(err error) {
	_ = t.conn.Close()

	reason := t.closeReason(err)
	if reason != nil && t.callbacks.OnError != nil {
		t.callbacks.OnError(reason)
	}
	if t.callbacks.OnClose != nil {
		t.callbacks.OnClose(reason)
	}
}

// closeReason normalizes a read error: nil for deliberate or clean closes,
// *core.CloseError for everything else.
func (t *webSocket) closeReason(err error) error {
	select {
	case <-t.closed:
		return nil
	default:
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway {
			return nil
		}
		return &core.CloseError{Code: closeErr.Code, Reason: closeErr.Text, Err: err}
	}
	return &core.CloseError{Code: websocket.CloseAbnormalClosure, Err: err}
}
