package state

import (
	"context"

	"github.com/driftline/go-sdk/pkg/models"
)

// Hydrator resolves objects the cache has only seen referenced by id. The
// REST client is the normal implementation; tests supply fakes. Messages are
// not hydrated: they always arrive on the wire with a full payload.
type Hydrator interface {
	// FetchUser retrieves a user by id.
	FetchUser(ctx context.Context, id string) (*models.User, error)

	// FetchChannel retrieves a channel by id.
	FetchChannel(ctx context.Context, id string) (*models.Channel, error)
}

// Hooks observe cache mutations. Each hook receives an independent copy of
// the object after the mutation (for deletes, the object as it was removed).
// Hooks run on the goroutine performing the mutation and must not block;
// nil hooks are skipped.
type Hooks struct {
	OnUserUpdate    func(*models.User)
	OnChannelUpdate func(*models.Channel)
	OnChannelDelete func(*models.Channel)
	OnMessageUpdate func(*models.Message)
	OnMessageDelete func(*models.Message)
}

// State is the object cache shared between the realtime dispatch loop, which
// keeps it current, and application goroutines, which read from it.
type State struct {
	users    *UserStore
	channels *ChannelStore
	messages *MessageStore
}

// New creates an empty cache. The hydrator may be nil, in which case
// FetchOrCreate calls that would need the network fail with core.ErrNotFound.
func New(hydrator Hydrator, hooks Hooks) *State {
	return &State{
		users:    newUserStore(hydrator, hooks),
		channels: newChannelStore(hydrator, hooks),
		messages: newMessageStore(hooks),
	}
}

// Users returns the user store.
func (s *State) Users() *UserStore {
	return s.users
}

// Channels returns the channel store.
func (s *State) Channels() *ChannelStore {
	return s.channels
}

// Messages returns the message store.
func (s *State) Messages() *MessageStore {
	return s.messages
}
