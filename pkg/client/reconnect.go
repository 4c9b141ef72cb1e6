package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/driftline/go-sdk/pkg/core"
)

// defaultBackoff is the reconnection policy used when the configuration does
// not supply one: exponential growth from one second, capped at thirty, with
// the policy's built-in jitter, retrying until explicitly disconnected.
func defaultBackoff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.Multiplier = 2
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0
	return policy
}

// scheduleReconnect starts the reconnection controller unless one is already
// running. At most one backoff chain exists per client; retried attempts run
// in no-retry mode, so their own closures re-enter this chain instead of
// forking parallel ones.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.retrying {
		c.mu.Unlock()
		return
	}
	c.retrying = true
	ctx, cancel := context.WithCancel(context.Background())
	c.retryCancel = cancel
	c.mu.Unlock()

	go c.reconnectLoop(ctx)
}

// reconnectLoop redials the gateway under the backoff policy until an
// attempt reaches ready, the policy gives up, or Disconnect cancels it. Each
// attempt shares the outstanding pending operation, so a caller blocked in
// Connect is released by whichever retry finally succeeds, and an exhausted
// policy propagates its failure to that same caller.
func (c *Client) reconnectLoop(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.retrying = false
		c.retryCancel = nil
		c.mu.Unlock()
	}()

	policy := c.newBackoff()
	attempt := 0

	for {
		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			c.log.WithField("attempts", attempt).Error("giving up on reconnecting")
			c.mu.Lock()
			pending := c.pending
			c.mu.Unlock()
			if pending != nil {
				pending.reject(fmt.Errorf("reconnect abandoned after %d attempts: %w",
					attempt, core.ErrConnectionClosed))
			}
			return
		}

		attempt++
		c.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   wait,
		}).Info("scheduling reconnect")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}

		pending, cn, err := c.connect(true)
		if err != nil {
			// Precondition failures cannot heal by waiting.
			c.log.WithError(err).Error("abandoning reconnect")
			return
		}

		// An attempt can end two ways: the operation settles (ready, or a
		// handshake failure rejected it), or the connection dies while the
		// operation is still outstanding (authenticated but never ready).
		var connDead <-chan struct{}
		if cn != nil {
			connDead = cn.done
		}
		select {
		case <-pending.done:
		case <-connDead:
		case <-ctx.Done():
			return
		}

		if !pending.settled() {
			c.log.Warn("reconnect attempt dropped before ready")
			continue
		}
		if pending.err == nil {
			c.log.WithField("attempt", attempt).Info("reconnected")
			return
		}
		c.log.WithError(pending.err).Warn("reconnect attempt failed")
	}
}
