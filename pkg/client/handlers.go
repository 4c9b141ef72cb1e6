package client

import (
	"sync"

	"github.com/driftline/go-sdk/pkg/core/events"
	"github.com/driftline/go-sdk/pkg/models"
)

// handlerHub holds the application's event handlers. Handlers run inline on
// the goroutine that produced the event (usually the dispatch loop) and must
// not block; a nil handler is skipped. Emission is fire-and-forget: handler
// panics aside, nothing a handler does can fail dispatch.
type handlerHub struct {
	mu sync.RWMutex

	onConnecting    func()
	onConnected     func()
	onReady         func()
	onDropped       func(err error)
	onPacket        func(event events.Event)
	onMessage       func(message *models.Message)
	onMessageUpdate func(message *models.Message)
	onMessageDelete func(message *models.Message)
	onChannelCreate func(channel *models.Channel)
	onChannelUpdate func(channel *models.Channel)
	onChannelDelete func(channel *models.Channel)
	onUserUpdate    func(user *models.User)
}

// OnConnecting registers a handler fired when a connect attempt starts,
// before the transport is dialed.
func (c *Client) OnConnecting(handler func()) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onConnecting = handler
}

// OnConnected registers a handler fired when the gateway accepts the
// session. Initial state has not been hydrated at that point; wait for
// OnReady before reading the cache.
func (c *Client) OnConnected(handler func()) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onConnected = handler
}

// OnReady registers a handler fired once initial users and channels have
// been hydrated and the client is safe to use.
func (c *Client) OnReady(handler func()) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onReady = handler
}

// OnDropped registers a handler fired when the active connection ends for
// any reason. err is nil when the gateway closed the connection cleanly and
// a *core.CloseError otherwise. Deliberate teardown by Connect or Disconnect
// does not fire it.
func (c *Client) OnDropped(handler func(err error)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onDropped = handler
}

// OnPacket registers a handler fired for every decoded inbound notification,
// including kinds this SDK does not recognize. Intended for observability;
// state changes are better consumed through the typed handlers.
func (c *Client) OnPacket(handler func(event events.Event)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onPacket = handler
}

// OnMessage registers a handler fired when a new message enters the cache.
// Redelivered messages do not fire it twice.
func (c *Client) OnMessage(handler func(message *models.Message)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onMessage = handler
}

// OnMessageUpdate registers a handler fired after a cached message is
// patched.
func (c *Client) OnMessageUpdate(handler func(message *models.Message)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onMessageUpdate = handler
}

// OnMessageDelete registers a handler fired after a cached message is
// removed. The handler receives the message as it was removed.
func (c *Client) OnMessageDelete(handler func(message *models.Message)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onMessageDelete = handler
}

// OnChannelCreate registers a handler fired when the session gains access to
// a channel.
func (c *Client) OnChannelCreate(handler func(channel *models.Channel)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onChannelCreate = handler
}

// OnChannelUpdate registers a handler fired after a cached channel changes:
// a gateway patch, or a membership change on a group.
func (c *Client) OnChannelUpdate(handler func(channel *models.Channel)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onChannelUpdate = handler
}

// OnChannelDelete registers a handler fired after a cached channel is
// removed. The handler receives the channel as it was removed.
func (c *Client) OnChannelDelete(handler func(channel *models.Channel)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onChannelDelete = handler
}

// OnUserUpdate registers a handler fired after a cached user changes:
// relationship, presence, or a gateway patch.
func (c *Client) OnUserUpdate(handler func(user *models.User)) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onUserUpdate = handler
}

func (c *Client) emitConnecting() {
	c.handlers.mu.RLock()
	handler := c.handlers.onConnecting
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler()
	}
}

func (c *Client) emitConnected() {
	c.handlers.mu.RLock()
	handler := c.handlers.onConnected
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler()
	}
}

func (c *Client) emitReady() {
	c.handlers.mu.RLock()
	handler := c.handlers.onReady
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler()
	}
}

func (c *Client) emitDropped(err error) {
	c.handlers.mu.RLock()
	handler := c.handlers.onDropped
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(err)
	}
}

func (c *Client) emitPacket(event events.Event) {
	c.handlers.mu.RLock()
	handler := c.handlers.onPacket
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(event)
	}
}

func (c *Client) emitMessage(message *models.Message) {
	c.handlers.mu.RLock()
	handler := c.handlers.onMessage
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(message)
	}
}

func (c *Client) emitMessageUpdate(message *models.Message) {
	c.handlers.mu.RLock()
	handler := c.handlers.onMessageUpdate
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(message)
	}
}

func (c *Client) emitMessageDelete(message *models.Message) {
	c.handlers.mu.RLock()
	handler := c.handlers.onMessageDelete
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(message)
	}
}

func (c *Client) emitChannelCreate(channel *models.Channel) {
	c.handlers.mu.RLock()
	handler := c.handlers.onChannelCreate
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(channel)
	}
}

func (c *Client) emitChannelUpdate(channel *models.Channel) {
	c.handlers.mu.RLock()
	handler := c.handlers.onChannelUpdate
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(channel)
	}
}

func (c *Client) emitChannelDelete(channel *models.Channel) {
	c.handlers.mu.RLock()
	handler := c.handlers.onChannelDelete
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(channel)
	}
}

func (c *Client) emitUserUpdate(user *models.User) {
	c.handlers.mu.RLock()
	handler := c.handlers.onUserUpdate
	c.handlers.mu.RUnlock()
	if handler != nil {
		handler(user)
	}
}
