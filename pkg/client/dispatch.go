package client

import (
	"github.com/sirupsen/logrus"

	"github.com/driftline/go-sdk/pkg/core"
	"github.com/driftline/go-sdk/pkg/core/events"
	"github.com/driftline/go-sdk/pkg/models"
)

// handleOpen runs when the transport comes up: it sends the Authenticate
// frame built from the attempt's credentials. No state beyond AwaitingAuth is
// assumed here; authentication success is signaled by the server.
func (c *Client) handleOpen(cn *conn) {
	c.mu.Lock()
	if c.conn != cn {
		c.mu.Unlock()
		return
	}
	c.status = core.StatusAwaitingAuth
	c.mu.Unlock()

	frame := events.NewAuthenticateEvent(cn.session)
	data, err := frame.ToJSON()
	if err != nil {
		cn.pending.reject(err)
		_ = cn.teardown()
		return
	}

	if c.debug {
		c.log.WithField("frame", string(data)).Debug("gateway send")
	}
	if err := cn.transport.Send(data); err != nil {
		c.log.WithError(err).Warn("failed to send authenticate frame")
		cn.pending.reject(err)
		// Closing here makes the failure observable as a normal closure;
		// handleClosed finishes the cleanup.
		_ = cn.transport.Close()
	}
}

// handleFrame decodes one inbound frame and applies it. Undecodable frames
// are logged and skipped rather than failing the connection; the gateway may
// speak a newer protocol revision than this SDK.
func (c *Client) handleFrame(cn *conn, data []byte) {
	if c.debug {
		c.log.WithField("frame", string(data)).Debug("gateway recv")
	}

	event, err := events.EventFromJSON(data)
	if err != nil {
		c.log.WithError(err).Warn("dropping undecodable gateway frame")
		return
	}

	c.emitPacket(event)
	c.dispatch(cn, event)
}

// handleFail reacts to a transport-level error: the pending operation is
// rejected. The transport always follows an error with a close, so state and
// reconnection are handled there.
func (c *Client) handleFail(cn *conn, err error) {
	c.log.WithError(err).Warn("gateway transport error")
	cn.pending.reject(err)
}

// handleClosed reacts to the transport ending. For the active connection it
// emits dropped, resets the lifecycle state, and either hands the pending
// operation to the reconnection controller or settles it. Closure of a
// replaced connection is ignored; its operation was settled at replacement.
func (c *Client) handleClosed(cn *conn, err error) {
	cn.stopHandshakeTimer()

	c.mu.Lock()
	if c.conn != cn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.status = core.StatusDisconnected
	retry := !c.noReconnect && c.autoReconnect
	c.mu.Unlock()

	c.log.WithError(err).Info("gateway connection dropped")
	c.emitDropped(err)

	if retry {
		// The reconnection controller now owns the outstanding operation:
		// a successful retry resolves it, an exhausted policy rejects it.
		c.scheduleReconnect()
		return
	}

	if err == nil {
		err = core.ErrConnectionClosed
	}
	cn.pending.reject(err)
}

// handshakeExpired tears down a connection whose Authenticate/Ready exchange
// outlived the configured deadline.
func (c *Client) handshakeExpired(cn *conn) {
	c.mu.Lock()
	if c.conn != cn || c.status == core.StatusReady {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.status = core.StatusDisconnected
	c.mu.Unlock()

	c.log.Warn("gateway handshake timed out")
	_ = cn.teardown()
	cn.pending.reject(core.ErrHandshakeTimeout)
}

// dispatch applies one decoded notification. Kinds with no case here are
// deliberately ignored.
func (c *Client) dispatch(cn *conn, event events.Event) {
	if !c.attached(cn) {
		return
	}

	switch event := event.(type) {
	case *events.AuthenticatedEvent:
		c.handleAuthenticated(cn)
	case *events.ErrorEvent:
		// A handshake-time failure: settle the pending operation with the
		// server's error. After readiness this is a no-op on the already
		// resolved operation.
		cn.pending.reject(&core.ServerError{Type: event.Err})
	case *events.ReadyEvent:
		c.handleReady(cn, event)
	case *events.MessageEvent:
		c.handleMessage(cn, event)
	case *events.MessageUpdateEvent:
		if _, err := c.cache.Messages().Patch(event.ID, event.Data); err != nil {
			c.log.WithError(err).Error("failed to apply message update")
		}
	case *events.MessageDeleteEvent:
		c.cache.Messages().Delete(event.ID)
	case *events.ChannelCreateEvent:
		c.handleChannelCreate(cn, event)
	case *events.ChannelUpdateEvent:
		c.handleChannelUpdate(cn, event)
	case *events.ChannelGroupJoinEvent:
		c.handleGroupJoin(cn, event)
	case *events.ChannelGroupLeaveEvent:
		c.handleGroupLeave(cn, event)
	case *events.ChannelDeleteEvent:
		c.cache.Channels().Delete(event.ID)
	case *events.UserRelationshipEvent:
		c.handleUserRelationship(cn, event)
	case *events.UserPresenceEvent:
		c.handleUserPresence(cn, event)
	}
}

// handleAuthenticated marks the session accepted. A successful
// authentication also exits the no-retry mode a reconnect attempt runs
// under, so a later drop of this connection starts a fresh backoff chain.
func (c *Client) handleAuthenticated(cn *conn) {
	c.mu.Lock()
	if c.conn != cn {
		c.mu.Unlock()
		return
	}
	c.noReconnect = false
	c.status = core.StatusConnected
	c.mu.Unlock()

	c.emitConnected()
}

// handleReady hydrates the initial snapshot, marks the session user, and
// moves the connection to ready. This is the only path that resolves the
// pending connect operation.
func (c *Client) handleReady(cn *conn, event *events.ReadyEvent) {
	for _, user := range event.Users {
		if user == nil || user.ID == "" {
			continue
		}
		if _, err := c.cache.Users().FetchOrCreate(cn.ctx, user.ID, user); err != nil {
			c.log.WithError(err).WithField("user", user.ID).Error("failed to hydrate user")
		}
	}

	// The local user is whichever entry of the snapshot carries the
	// session's user id.
	c.cache.Users().MarkSelf(cn.session.UserID)

	for _, channel := range event.Channels {
		if channel == nil || channel.ID == "" {
			continue
		}
		if _, err := c.cache.Channels().FetchOrCreate(cn.ctx, channel.ID, channel); err != nil {
			c.log.WithError(err).WithField("channel", channel.ID).Error("failed to hydrate channel")
		}
	}

	c.mu.Lock()
	if c.conn != cn {
		c.mu.Unlock()
		return
	}
	c.status = core.StatusReady
	c.selfID = cn.session.UserID
	c.mu.Unlock()

	cn.stopHandshakeTimer()
	c.log.WithFields(logrus.Fields{
		"users":    len(event.Users),
		"channels": len(event.Channels),
	}).Info("gateway ready")

	c.emitReady()
	cn.pending.resolve()
}

// handleMessage inserts a newly delivered message. Redelivery of a cached id
// is a no-op, so the message handler fires at most once per message.
func (c *Client) handleMessage(cn *conn, event *events.MessageEvent) {
	if c.cache.Messages().Has(event.Message.ID) {
		return
	}

	if _, err := c.cache.Channels().FetchOrCreate(cn.ctx, event.Message.ChannelID, nil); err != nil {
		c.log.WithError(err).WithField("channel", event.Message.ChannelID).
			Error("failed to resolve channel for message")
		return
	}

	message, created := c.cache.Messages().FetchOrCreate(&event.Message)
	if !created {
		return
	}

	c.emitMessage(message)

	// Derived state only: the summary refresh raises no channel update.
	c.cache.Channels().SetLastMessage(message.ChannelID, message)
}

func (c *Client) handleChannelCreate(cn *conn, event *events.ChannelCreateEvent) {
	channel, err := c.cache.Channels().FetchOrCreate(cn.ctx, event.Channel.ID, &event.Channel)
	if err != nil {
		c.log.WithError(err).WithField("channel", event.Channel.ID).Error("failed to create channel")
		return
	}
	c.emitChannelCreate(channel)
}

func (c *Client) handleChannelUpdate(cn *conn, event *events.ChannelUpdateEvent) {
	if _, err := c.cache.Channels().FetchOrCreate(cn.ctx, event.ID, nil); err != nil {
		c.log.WithError(err).WithField("channel", event.ID).Error("failed to resolve channel for update")
		return
	}
	if _, err := c.cache.Channels().Patch(event.ID, event.Data); err != nil {
		c.log.WithError(err).WithField("channel", event.ID).Error("failed to apply channel update")
	}
}

func (c *Client) handleGroupJoin(cn *conn, event *events.ChannelGroupJoinEvent) {
	if _, err := c.cache.Channels().FetchOrCreate(cn.ctx, event.ID, nil); err != nil {
		c.log.WithError(err).WithField("channel", event.ID).Error("failed to resolve group for join")
		return
	}
	if _, err := c.cache.Users().FetchOrCreate(cn.ctx, event.UserID, nil); err != nil {
		c.log.WithError(err).WithField("user", event.UserID).Error("failed to resolve joining user")
		return
	}
	c.cache.Channels().AddRecipient(event.ID, event.UserID)
}

func (c *Client) handleGroupLeave(cn *conn, event *events.ChannelGroupLeaveEvent) {
	if _, err := c.cache.Channels().FetchOrCreate(cn.ctx, event.ID, nil); err != nil {
		c.log.WithError(err).WithField("channel", event.ID).Error("failed to resolve group for leave")
		return
	}
	c.cache.Channels().RemoveRecipient(event.ID, event.UserID)
}

// handleUserRelationship records a relationship change. A "None" status for
// a user the cache has never seen is skipped entirely: there is nothing
// worth materializing a cache entry for.
func (c *Client) handleUserRelationship(cn *conn, event *events.UserRelationshipEvent) {
	_, cached := c.cache.Users().Get(event.UserID)
	if event.Status == models.RelationshipNone && !cached {
		return
	}
	if _, err := c.cache.Users().FetchOrCreate(cn.ctx, event.UserID, nil); err != nil {
		c.log.WithError(err).WithField("user", event.UserID).Error("failed to resolve user for relationship")
		return
	}
	c.cache.Users().SetRelationship(event.UserID, event.Status)
}

func (c *Client) handleUserPresence(cn *conn, event *events.UserPresenceEvent) {
	if _, err := c.cache.Users().FetchOrCreate(cn.ctx, event.UserID, nil); err != nil {
		c.log.WithError(err).WithField("user", event.UserID).Error("failed to resolve user for presence")
		return
	}
	c.cache.Users().SetPresence(event.UserID, event.Online)
}
