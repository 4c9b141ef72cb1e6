package state

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/driftline/go-sdk/pkg/core"
	"github.com/driftline/go-sdk/pkg/models"
)

// ChannelStore caches channels by id with thread safety.
type ChannelStore struct {
	mu       sync.RWMutex
	channels map[string]*models.Channel
	hydrator Hydrator
	hooks    Hooks
}

// newChannelStore creates an empty channel store.
func newChannelStore(hydrator Hydrator, hooks Hooks) *ChannelStore {
	return &ChannelStore{
		channels: make(map[string]*models.Channel),
		hydrator: hydrator,
		hooks:    hooks,
	}
}

// Get returns a copy of the cached channel, if present.
func (s *ChannelStore) Get(id string) (*models.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channel, ok := s.channels[id]
	if !ok {
		return nil, false
	}
	return channel.Clone(), true
}

// List returns copies of all cached channels, ordered by id.
func (s *ChannelStore) List() []*models.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.Channel, 0, len(s.channels))
	for _, channel := range s.channels {
		list = append(list, channel.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Count returns the number of cached channels.
func (s *ChannelStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}

// FetchOrCreate returns the cached channel for id. When absent it inserts the
// supplied payload, or resolves the channel through the hydrator when no
// payload is available. Resolving without payload or hydrator fails with
// core.ErrNotFound.
func (s *ChannelStore) FetchOrCreate(ctx context.Context, id string, payload *models.Channel) (*models.Channel, error) {
	if channel, ok := s.Get(id); ok {
		return channel, nil
	}

	if payload == nil {
		if s.hydrator == nil {
			return nil, fmt.Errorf("channel %s: %w", id, core.ErrNotFound)
		}
		fetched, err := s.hydrator.FetchChannel(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("hydrating channel %s: %w", id, err)
		}
		payload = fetched
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have inserted the channel while we were fetching.
	if channel, ok := s.channels[id]; ok {
		return channel.Clone(), nil
	}

	channel := payload.Clone()
	if channel.ID == "" {
		channel.ID = id
	}
	s.channels[id] = channel
	return channel.Clone(), nil
}

// Patch applies a merge patch to the cached channel, re-synchronizes state
// derived from the patched fields, and fires the channel update hook.
// Patching an uncached channel is a no-op returning nil.
func (s *ChannelStore) Patch(id string, patch []byte) (*models.Channel, error) {
	s.mu.Lock()
	channel, ok := s.channels[id]
	if !ok {
		s.mu.Unlock()
		return nil, nil
	}
	if err := channel.ApplyPatch(patch); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("patching channel %s: %w", id, err)
	}
	channel.Sync()
	updated := channel.Clone()
	s.mu.Unlock()

	s.notifyUpdate(updated)
	return updated.Clone(), nil
}

// Delete removes the channel from the cache and fires the channel delete
// hook with the removed value. Deleting an uncached channel is a no-op.
func (s *ChannelStore) Delete(id string) (*models.Channel, bool) {
	s.mu.Lock()
	channel, ok := s.channels[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	delete(s.channels, id)
	removed := channel.Clone()
	s.mu.Unlock()

	if s.hooks.OnChannelDelete != nil {
		s.hooks.OnChannelDelete(removed)
	}
	return removed.Clone(), true
}

// AddRecipient adds a user to the cached channel's member set and fires the
// channel update hook. Uncached channels are a no-op.
func (s *ChannelStore) AddRecipient(id, userID string) (*models.Channel, bool) {
	s.mu.Lock()
	channel, ok := s.channels[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	channel.AddRecipient(userID)
	updated := channel.Clone()
	s.mu.Unlock()

	s.notifyUpdate(updated)
	return updated.Clone(), true
}

// RemoveRecipient removes a user from the cached channel's member set and
// fires the channel update hook. Uncached channels are a no-op.
func (s *ChannelStore) RemoveRecipient(id, userID string) (*models.Channel, bool) {
	s.mu.Lock()
	channel, ok := s.channels[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	channel.RemoveRecipient(userID)
	updated := channel.Clone()
	s.mu.Unlock()

	s.notifyUpdate(updated)
	return updated.Clone(), true
}

// SetLastMessage refreshes the cached channel's last-message summary from a
// freshly delivered message. The summary is derived state, so no update hook
// fires for it.
func (s *ChannelStore) SetLastMessage(id string, message *models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, ok := s.channels[id]
	if !ok {
		return false
	}
	channel.SetLastMessage(message)
	return true
}

// notifyUpdate fires the channel update hook outside the store lock so
// handlers can safely call back into the store.
func (s *ChannelStore) notifyUpdate(channel *models.Channel) {
	if s.hooks.OnChannelUpdate != nil {
		s.hooks.OnChannelUpdate(channel)
	}
}
