package client

import (
	"context"
	"sync"
	"time"

	"github.com/driftline/go-sdk/pkg/models"
	"github.com/driftline/go-sdk/pkg/transport"
)

// connQueueSize is the capacity of a connection's inbound queue. When the
// dispatch loop falls behind (a handler is hydrating over REST, say), the
// transport's read goroutine blocks on the queue, which surfaces as TCP
// backpressure rather than unbounded buffering.
const connQueueSize = 128

// connEventKind tags the entries of a connection's inbound queue.
type connEventKind int

const (
	// connOpened is queued once when the transport comes up.
	connOpened connEventKind = iota

	// connFrame carries one inbound text frame.
	connFrame

	// connFailed carries a transport error. The transport fires it before
	// the closing connClosed.
	connFailed

	// connClosed is the final entry; the transport queues it exactly once.
	connClosed
)

// connEvent is one entry in a connection's inbound queue.
type connEvent struct {
	kind  connEventKind
	frame []byte
	err   error
}

// conn is a single connection epoch: one dialed transport, the inbound queue
// it feeds, and the dispatch goroutine draining that queue. A client replaces
// its conn wholesale on every connect and disconnect, so a fresh epoch always
// starts with an empty queue and frames from a replaced epoch can never leak
// into the cache.
type conn struct {
	client    *Client
	session   models.Session
	pending   *pendingConnect
	transport transport.Transport

	// ctx is cancelled when the conn is detached or its queue drains to the
	// terminal close entry. REST hydration performed while dispatching runs
	// under it, so tearing the conn down aborts in-flight lookups too.
	ctx    context.Context
	cancel context.CancelFunc

	events chan connEvent

	// done closes when the dispatch loop exits. The reconnection controller
	// watches it: an attempt can die without settling the pending operation
	// (authenticated but never ready), and the next attempt must still fire.
	done chan struct{}

	timerMu sync.Mutex
	hsTimer *time.Timer
}

func newConn(client *Client, session models.Session, pending *pendingConnect) *conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &conn{
		client:  client,
		session: session,
		pending: pending,
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan connEvent, connQueueSize),
		done:    make(chan struct{}),
	}
}

// callbacks wires the transport to the inbound queue. The transport invokes
// these from its read goroutine; they only enqueue, so transport threading
// never interleaves with dispatch.
func (cn *conn) callbacks() transport.Callbacks {
	return transport.Callbacks{
		OnOpen:    func() { cn.push(connEvent{kind: connOpened}) },
		OnMessage: func(data []byte) { cn.push(connEvent{kind: connFrame, frame: data}) },
		OnError:   func(err error) { cn.push(connEvent{kind: connFailed, err: err}) },
		OnClose:   func(err error) { cn.push(connEvent{kind: connClosed, err: err}) },
	}
}

// push appends one entry to the inbound queue, giving up when the conn is
// torn down so a detached transport cannot block forever on a full queue.
func (cn *conn) push(ev connEvent) {
	select {
	case cn.events <- ev:
	case <-cn.ctx.Done():
	}
}

// run is the dispatch loop: it drains the inbound queue strictly in order,
// running each entry to completion (including any REST hydration its handler
// performs) before taking the next. Exactly one run goroutine exists per
// conn, which is what serializes all cache mutation.
func (cn *conn) run() {
	defer close(cn.done)
	defer cn.cancel()

	for {
		// A detached conn stops before touching whatever is still queued.
		select {
		case <-cn.ctx.Done():
			return
		default:
		}

		select {
		case ev := <-cn.events:
			switch ev.kind {
			case connOpened:
				cn.client.handleOpen(cn)
			case connFrame:
				cn.client.handleFrame(cn, ev.frame)
			case connFailed:
				cn.client.handleFail(cn, ev.err)
			case connClosed:
				cn.client.handleClosed(cn, ev.err)
				return
			}
		case <-cn.ctx.Done():
			return
		}
	}
}

// teardown detaches the conn from the world: the handshake timer stops, the
// dispatch loop exits without touching queued entries, and the transport is
// closed. Safe to call multiple times and on conns that never finished
// dialing.
func (cn *conn) teardown() error {
	cn.stopHandshakeTimer()
	cn.cancel()
	if cn.transport != nil {
		return cn.transport.Close()
	}
	return nil
}

// startHandshakeTimer arms the handshake deadline. When it fires before the
// conn reaches ready, the client tears the attempt down.
func (cn *conn) startHandshakeTimer(d time.Duration) {
	cn.timerMu.Lock()
	defer cn.timerMu.Unlock()
	cn.hsTimer = time.AfterFunc(d, func() {
		cn.client.handshakeExpired(cn)
	})
}

func (cn *conn) stopHandshakeTimer() {
	cn.timerMu.Lock()
	defer cn.timerMu.Unlock()
	if cn.hsTimer != nil {
		cn.hsTimer.Stop()
		cn.hsTimer = nil
	}
}
