package client

import (
	"sync"
)

// pendingConnect is the result cell for one connect operation. It settles
// exactly once: resolve marks the handshake complete, reject records the
// failure. Later settlement attempts are no-ops, which lets every failure
// path fire unconditionally without coordinating over who reports first.
type pendingConnect struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newPendingConnect() *pendingConnect {
	return &pendingConnect{done: make(chan struct{})}
}

// resolve settles the operation successfully.
func (p *pendingConnect) resolve() {
	p.once.Do(func() {
		close(p.done)
	})
}

// reject settles the operation with err.
func (p *pendingConnect) reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// settled reports whether the operation has been resolved or rejected.
func (p *pendingConnect) settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
