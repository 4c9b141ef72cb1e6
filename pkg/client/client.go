package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/driftline/go-sdk/pkg/core"
	"github.com/driftline/go-sdk/pkg/core/events"
	"github.com/driftline/go-sdk/pkg/models"
	"github.com/driftline/go-sdk/pkg/state"
	"github.com/driftline/go-sdk/pkg/transport"
)

// DefaultHandshakeTimeout bounds the window between dialing the gateway and
// receiving Ready. Without it a gateway that accepts the connection but
// never finishes the handshake would stall Connect forever.
const DefaultHandshakeTimeout = 30 * time.Second

// Config contains configuration options for the realtime client.
type Config struct {
	// Configuration is the node metadata carrying the gateway URL. Optional
	// at construction; supply it later with UseConfiguration. Connect fails
	// with core.ErrNoConfiguration while it is absent.
	Configuration *models.Configuration

	// Session holds the credentials presented during the handshake.
	// Optional at construction; supply it later with UseSession. Connect
	// fails with core.ErrNoSession while it is absent.
	Session *models.Session

	// Hydrator resolves objects that gateway notifications reference only
	// by id, normally the rest.Client. Without one, such notifications are
	// dropped with a logged error.
	Hydrator state.Hydrator

	// AutoReconnect enables the reconnection controller: when the active
	// connection drops, the client redials with exponential backoff until
	// it succeeds or Disconnect is called.
	AutoReconnect bool

	// HandshakeTimeout bounds dial-to-ready. Zero selects
	// DefaultHandshakeTimeout; a negative value disables the deadline.
	HandshakeTimeout time.Duration

	// Debug logs every raw inbound and outbound frame at debug level.
	Debug bool

	// Logger receives connection lifecycle and dispatch logging. Defaults
	// to a new logrus logger.
	Logger *logrus.Logger

	// Backoff builds the reconnection policy, one instance per backoff
	// chain. Defaults to exponential growth from 1s capped at 30s,
	// retrying indefinitely.
	Backoff func() backoff.BackOff
}

// Client is a realtime Driftline client: it connects to the gateway,
// performs the authentication handshake, and keeps an in-memory cache in
// sync with the ordered notification stream.
//
// A Client is safe for concurrent use. Cache mutation happens only on the
// active connection's dispatch goroutine; application goroutines read
// through State.
type Client struct {
	log        *logrus.Entry
	debug      bool
	hsTimeout  time.Duration
	newBackoff func() backoff.BackOff

	autoReconnect bool

	cache    *state.State
	handlers handlerHub

	mu      sync.Mutex
	status  core.Status
	config  *models.Configuration
	session *models.Session
	selfID  string

	// conn is the active connection epoch; nil while disconnected. epoch
	// invalidates attempts that were superseded mid-dial.
	conn  *conn
	epoch uint64

	// pending is the outstanding connect operation. It survives connection
	// replacement by the reconnection controller so the original caller is
	// settled by whichever attempt concludes the story.
	pending *pendingConnect

	// noReconnect suppresses close-triggered reconnection. It is set when
	// an attempt starts in no-retry mode and cleared by a successful
	// authentication.
	noReconnect bool

	retrying    bool
	retryCancel context.CancelFunc
}

// New creates a realtime client with the specified configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Configuration != nil {
		if err := cfg.Configuration.Validate(); err != nil {
			return nil, &core.ConfigError{Field: "Configuration", Value: cfg.Configuration.WS, Err: err}
		}
	}
	if cfg.Session != nil {
		if err := cfg.Session.Validate(); err != nil {
			return nil, &core.ConfigError{Field: "Session", Value: cfg.Session.UserID, Err: err}
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	hsTimeout := cfg.HandshakeTimeout
	switch {
	case hsTimeout == 0:
		hsTimeout = DefaultHandshakeTimeout
	case hsTimeout < 0:
		hsTimeout = 0
	}

	newBackoff := cfg.Backoff
	if newBackoff == nil {
		newBackoff = defaultBackoff
	}

	c := &Client{
		log:           logger.WithField("component", "gateway"),
		debug:         cfg.Debug,
		hsTimeout:     hsTimeout,
		newBackoff:    newBackoff,
		autoReconnect: cfg.AutoReconnect,
		status:        core.StatusDisconnected,
	}
	if cfg.Configuration != nil {
		config := *cfg.Configuration
		c.config = &config
	}
	if cfg.Session != nil {
		session := *cfg.Session
		c.session = &session
	}

	// Cache mutations observed through the stores surface as client
	// handlers, so patch and delete notifications reach the application
	// without it wiring hooks itself.
	c.cache = state.New(cfg.Hydrator, state.Hooks{
		OnUserUpdate:    c.emitUserUpdate,
		OnChannelUpdate: c.emitChannelUpdate,
		OnChannelDelete: c.emitChannelDelete,
		OnMessageUpdate: c.emitMessageUpdate,
		OnMessageDelete: c.emitMessageDelete,
	})

	return c, nil
}

// UseConfiguration attaches the node metadata subsequent connects dial with.
func (c *Client) UseConfiguration(config *models.Configuration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if config == nil {
		c.config = nil
		return
	}
	copied := *config
	c.config = &copied
}

// UseSession attaches the credentials subsequent connects authenticate with.
func (c *Client) UseSession(session *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if session == nil {
		c.session = nil
		return
	}
	copied := *session
	c.session = &copied
}

// Status returns the connection lifecycle state.
func (c *Client) Status() core.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connected reports whether the gateway has accepted the session.
func (c *Client) Connected() bool {
	return c.Status().Connected()
}

// Ready reports whether initial state has been hydrated.
func (c *Client) Ready() bool {
	return c.Status().Ready()
}

// State returns the object cache the client keeps in sync.
func (c *Client) State() *state.State {
	return c.cache
}

// Self returns the session user, once a handshake has identified it in the
// ready snapshot.
func (c *Client) Self() (*models.User, bool) {
	c.mu.Lock()
	selfID := c.selfID
	c.mu.Unlock()
	if selfID == "" {
		return nil, false
	}
	return c.cache.Users().Get(selfID)
}

// Connect dials the gateway, performs the Authenticate/Ready handshake, and
// blocks until the client is ready, the handshake fails, or ctx ends. When
// auto-reconnect is enabled and the connection drops before readiness,
// Connect keeps waiting while the reconnection controller retries.
//
// Connecting while already connected is allowed: the prior connection is
// torn down first, and a caller still waiting on it gets
// core.ErrConnectionReplaced.
func (c *Client) Connect(ctx context.Context) error {
	pending, _, err := c.connect(false)
	if err != nil {
		return err
	}

	select {
	case <-pending.done:
		return pending.err
	case <-ctx.Done():
		c.abandonConnect(pending, ctx.Err())
		return ctx.Err()
	}
}

// connect starts one connect attempt, returning its pending operation and,
// when a dispatch loop was started, the connection running it. In retry mode
// the attempt adopts the outstanding operation and suppresses its own
// close-triggered reconnection; the controller it belongs to handles retries.
// Synchronous errors (failed preconditions) are returned directly and also
// settle the operation.
func (c *Client) connect(retry bool) (*pendingConnect, *conn, error) {
	c.emitConnecting()

	c.mu.Lock()
	c.epoch++
	myEpoch := c.epoch

	// The prior transport always closes before a new one opens.
	old := c.conn
	c.conn = nil

	// A caller-initiated connect supersedes a running backoff chain: the
	// new lifecycle starts clean, and its own drops spawn a fresh chain.
	var cancelRetry context.CancelFunc
	if !retry && c.retryCancel != nil {
		cancelRetry = c.retryCancel
		c.retryCancel = nil
	}

	var replaced *pendingConnect
	if retry {
		if c.pending == nil || c.pending.settled() {
			c.pending = newPendingConnect()
		}
	} else {
		if c.pending != nil && !c.pending.settled() {
			replaced = c.pending
		}
		c.pending = newPendingConnect()
	}
	pending := c.pending
	c.noReconnect = retry

	var precondition error
	switch {
	case c.config == nil:
		precondition = core.ErrNoConfiguration
	case c.session == nil:
		precondition = core.ErrNoSession
	}
	if precondition != nil {
		c.status = core.StatusDisconnected
		c.mu.Unlock()
		if cancelRetry != nil {
			cancelRetry()
		}
		if old != nil {
			_ = old.teardown()
		}
		if replaced != nil {
			replaced.reject(core.ErrConnectionReplaced)
		}
		pending.reject(precondition)
		return nil, nil, precondition
	}

	gatewayURL := c.config.WS
	session := *c.session
	c.status = core.StatusConnecting
	c.mu.Unlock()

	if cancelRetry != nil {
		cancelRetry()
	}
	if old != nil {
		_ = old.teardown()
	}
	if replaced != nil {
		replaced.reject(core.ErrConnectionReplaced)
	}

	cn := newConn(c, session, pending)

	dialCtx := cn.ctx
	if c.hsTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(cn.ctx, c.hsTimeout)
		defer cancel()
	}

	c.log.WithField("url", gatewayURL).Info("connecting to gateway")
	tr, err := transport.Dial(dialCtx, gatewayURL, cn.callbacks())
	if err != nil {
		cn.cancel()
		c.mu.Lock()
		if c.epoch != myEpoch {
			// A newer Connect or Disconnect superseded this attempt while
			// it was dialing; it owns the client state now.
			c.mu.Unlock()
			return pending, nil, nil
		}
		c.status = core.StatusDisconnected
		doRetry := !c.noReconnect && c.autoReconnect
		c.mu.Unlock()

		pending.reject(err)
		c.emitDropped(err)
		if doRetry {
			c.scheduleReconnect()
		}
		return pending, nil, nil
	}

	cn.transport = tr

	c.mu.Lock()
	if c.epoch != myEpoch {
		c.mu.Unlock()
		_ = cn.teardown()
		return pending, nil, nil
	}
	c.conn = cn
	c.mu.Unlock()

	if c.hsTimeout > 0 {
		cn.startHandshakeTimer(c.hsTimeout)
	}
	go cn.run()

	return pending, cn, nil
}

// abandonConnect tears down the attempt a cancelled Connect was waiting on,
// unless a newer attempt owns the client already.
func (c *Client) abandonConnect(pending *pendingConnect, cause error) {
	c.mu.Lock()
	if c.pending != pending {
		c.mu.Unlock()
		return
	}
	c.epoch++
	cn := c.conn
	c.conn = nil
	c.pending = nil
	c.status = core.StatusDisconnected
	c.mu.Unlock()

	if cn != nil {
		_ = cn.teardown()
	}
	if cause == nil {
		cause = context.Canceled
	}
	pending.reject(cause)
}

// Disconnect tears down the active connection and stops any reconnection in
// progress. It is always safe to call, including on a client that never
// connected. A caller still blocked in Connect gets
// core.ErrConnectionReplaced.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.epoch++
	cn := c.conn
	c.conn = nil
	pending := c.pending
	c.pending = nil
	cancelRetry := c.retryCancel
	c.status = core.StatusDisconnected
	c.mu.Unlock()

	if cancelRetry != nil {
		cancelRetry()
	}

	var err error
	if cn != nil {
		err = cn.teardown()
	}
	if pending != nil {
		pending.reject(core.ErrConnectionReplaced)
	}

	c.log.Info("disconnected from gateway")
	return err
}

// Send serializes a notification and writes it to the gateway. Sending
// while no transport exists is a silent no-op: best-effort notifications do
// not require callers to track connection state.
func (c *Client) Send(event events.Event) error {
	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()
	if cn == nil {
		return nil
	}

	data, err := event.ToJSON()
	if err != nil {
		return err
	}

	if c.debug {
		c.log.WithField("frame", string(data)).Debug("gateway send")
	}
	if err := cn.transport.Send(data); err != nil {
		if errors.Is(err, core.ErrConnectionClosed) {
			// The transport raced a closure; equivalent to no transport.
			return nil
		}
		return err
	}
	return nil
}

// attached reports whether cn is still the client's active connection.
func (c *Client) attached(cn *conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == cn
}
