package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/go-sdk/internal/testutil"
	"github.com/driftline/go-sdk/pkg/core"
	"github.com/driftline/go-sdk/pkg/core/events"
	"github.com/driftline/go-sdk/pkg/models"
	"github.com/driftline/go-sdk/pkg/state"
)

const waitTimeout = 5 * time.Second

// quietLogger keeps expected connection churn out of the test output.
func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fastBackoff reconnects almost immediately so retry tests stay quick.
func fastBackoff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.Multiplier = 1.2
	policy.MaxInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = 0
	return policy
}

// testSession is the session every test client authenticates with.
func testSession() *models.Session {
	return &models.Session{ID: "sess-1", UserID: "u1", Token: "tok-1"}
}

// newTestClient builds a client pointed at the mock gateway. mutate adjusts
// the configuration before construction; pass nil to take the defaults.
func newTestClient(t *testing.T, g *testutil.Gateway, hydrator state.Hydrator, mutate func(*Config)) (*Client, *recorder) {
	t.Helper()

	cfg := Config{
		Configuration:    &models.Configuration{WS: g.URL()},
		Session:          testSession(),
		Hydrator:         hydrator,
		HandshakeTimeout: waitTimeout,
		Logger:           quietLogger(),
		Backoff:          fastBackoff,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Disconnect() })

	return c, record(c)
}

// recorder buffers every emitted client event so tests can assert on
// delivery order and absence.
type recorder struct {
	connecting     chan struct{}
	connected      chan struct{}
	ready          chan struct{}
	dropped        chan error
	packets        chan events.Event
	messages       chan *models.Message
	messageUpdates chan *models.Message
	messageDeletes chan *models.Message
	channelCreates chan *models.Channel
	channelUpdates chan *models.Channel
	channelDeletes chan *models.Channel
	userUpdates    chan *models.User
}

func record(c *Client) *recorder {
	r := &recorder{
		connecting:     make(chan struct{}, 16),
		connected:      make(chan struct{}, 16),
		ready:          make(chan struct{}, 16),
		dropped:        make(chan error, 16),
		packets:        make(chan events.Event, 64),
		messages:       make(chan *models.Message, 16),
		messageUpdates: make(chan *models.Message, 16),
		messageDeletes: make(chan *models.Message, 16),
		channelCreates: make(chan *models.Channel, 16),
		channelUpdates: make(chan *models.Channel, 16),
		channelDeletes: make(chan *models.Channel, 16),
		userUpdates:    make(chan *models.User, 16),
	}
	c.OnConnecting(func() { r.connecting <- struct{}{} })
	c.OnConnected(func() { r.connected <- struct{}{} })
	c.OnReady(func() { r.ready <- struct{}{} })
	c.OnDropped(func(err error) { r.dropped <- err })
	c.OnPacket(func(event events.Event) { r.packets <- event })
	c.OnMessage(func(m *models.Message) { r.messages <- m })
	c.OnMessageUpdate(func(m *models.Message) { r.messageUpdates <- m })
	c.OnMessageDelete(func(m *models.Message) { r.messageDeletes <- m })
	c.OnChannelCreate(func(ch *models.Channel) { r.channelCreates <- ch })
	c.OnChannelUpdate(func(ch *models.Channel) { r.channelUpdates <- ch })
	c.OnChannelDelete(func(ch *models.Channel) { r.channelDeletes <- ch })
	c.OnUserUpdate(func(u *models.User) { r.userUpdates <- u })
	return r
}

func waitEvent[T any](t *testing.T, ch chan T, name string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", name)
		var zero T
		return zero
	}
}

func expectNoEvent[T any](t *testing.T, ch chan T, name string, within time.Duration) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected %s: %v", name, v)
	case <-time.After(within):
	}
}

// fakeHydrator serves canned objects so dispatch tests can exercise the
// cache's REST fallback paths without a REST server. A per-channel delay
// simulates slow hydration.
type fakeHydrator struct {
	mu           sync.Mutex
	users        map[string]*models.User
	channels     map[string]*models.Channel
	channelDelay map[string]time.Duration
	userCalls    int
	channelCalls int
}

func newFakeHydrator() *fakeHydrator {
	return &fakeHydrator{
		users:        make(map[string]*models.User),
		channels:     make(map[string]*models.Channel),
		channelDelay: make(map[string]time.Duration),
	}
}

func (h *fakeHydrator) addUser(u *models.User)       { h.users[u.ID] = u }
func (h *fakeHydrator) addChannel(c *models.Channel) { h.channels[c.ID] = c }

func (h *fakeHydrator) FetchUser(_ context.Context, id string) (*models.User, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.userCalls++
	if u, ok := h.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, core.ErrNotFound
}

func (h *fakeHydrator) FetchChannel(ctx context.Context, id string) (*models.Channel, error) {
	h.mu.Lock()
	h.channelCalls++
	delay := h.channelDelay[id]
	channel, ok := h.channels[id]
	h.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, core.ErrNotFound
	}
	return channel.Clone(), nil
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantErr   bool
		wantField string
	}{
		{
			name:   "zero config",
			config: Config{},
		},
		{
			name: "full config",
			config: Config{
				Configuration: &models.Configuration{WS: "wss://gateway.driftline.chat"},
				Session:       testSession(),
				AutoReconnect: true,
			},
		},
		{
			name: "configuration without gateway URL",
			config: Config{
				Configuration: &models.Configuration{Version: "1"},
			},
			wantErr:   true,
			wantField: "Configuration",
		},
		{
			name: "session without token",
			config: Config{
				Session: &models.Session{UserID: "u1"},
			},
			wantErr:   true,
			wantField: "Session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				var configErr *core.ConfigError
				require.ErrorAs(t, err, &configErr)
				assert.Equal(t, tt.wantField, configErr.Field)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c)
			assert.Equal(t, core.StatusDisconnected, c.Status())
		})
	}
}

func TestNewHandshakeTimeoutDefaults(t *testing.T) {
	c, err := New(Config{Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, DefaultHandshakeTimeout, c.hsTimeout)

	c, err = New(Config{Logger: quietLogger(), HandshakeTimeout: -1})
	require.NoError(t, err)
	assert.Zero(t, c.hsTimeout, "negative timeout must disable the deadline")
}

func TestPendingConnectSettlesOnce(t *testing.T) {
	p := newPendingConnect()
	assert.False(t, p.settled())

	p.resolve()
	p.reject(errors.New("too late"))
	assert.True(t, p.settled())
	assert.NoError(t, p.err, "rejection after resolution must be a no-op")

	p = newPendingConnect()
	first := errors.New("first")
	p.reject(first)
	p.reject(errors.New("second"))
	p.resolve()
	assert.Same(t, first, p.err)
}

func TestConnectRequiresConfiguration(t *testing.T) {
	c, err := New(Config{Session: testSession(), Logger: quietLogger()})
	require.NoError(t, err)
	r := record(c)

	err = c.Connect(context.Background())
	require.ErrorIs(t, err, core.ErrNoConfiguration)
	assert.Equal(t, core.StatusDisconnected, c.Status())

	// The connecting event fires even for a connect that fails its
	// preconditions.
	waitEvent(t, r.connecting, "connecting")
}

func TestConnectRequiresSession(t *testing.T) {
	c, err := New(Config{
		Configuration: &models.Configuration{WS: "wss://gateway.driftline.chat"},
		Logger:        quietLogger(),
	})
	require.NoError(t, err)

	err = c.Connect(context.Background())
	require.ErrorIs(t, err, core.ErrNoSession)
	assert.Equal(t, core.StatusDisconnected, c.Status())
}

func TestConnectAfterLateCredentials(t *testing.T) {
	g := testutil.NewGateway(t)
	c, err := New(Config{Logger: quietLogger(), HandshakeTimeout: waitTimeout})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Disconnect() })

	require.ErrorIs(t, c.Connect(context.Background()), core.ErrNoConfiguration)

	// Bootstrap the way REST-first applications do: resolve the node, log
	// in, then hand both to the already-constructed client.
	c.UseConfiguration(&models.Configuration{WS: g.URL()})
	require.ErrorIs(t, c.Connect(context.Background()), core.ErrNoSession)
	c.UseSession(testSession())

	errCh := connectAsync(context.Background(), c)
	g.AcceptAndReady(nil, nil)
	require.NoError(t, waitEvent(t, errCh, "connect result"))
	assert.True(t, c.Ready())
}

func TestSendWithoutConnectionIsNoOp(t *testing.T) {
	c, err := New(Config{Logger: quietLogger()})
	require.NoError(t, err)

	assert.NoError(t, c.Send(events.NewAuthenticateEvent(*testSession())))
}

func TestDisconnectNeverConnected(t *testing.T) {
	c, err := New(Config{Logger: quietLogger()})
	require.NoError(t, err)

	assert.NoError(t, c.Disconnect())
	assert.NoError(t, c.Disconnect())
	assert.Equal(t, core.StatusDisconnected, c.Status())
}

func TestSelfUnknownBeforeReady(t *testing.T) {
	c, err := New(Config{Session: testSession(), Logger: quietLogger()})
	require.NoError(t, err)

	_, ok := c.Self()
	assert.False(t, ok)
}
