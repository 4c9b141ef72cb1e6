package state

import (
	"fmt"
	"sync"

	"github.com/driftline/go-sdk/pkg/models"
)

// MessageStore caches messages by id with thread safety. Messages always
// arrive with a full payload, so the store needs no hydrator.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
	hooks    Hooks
}

// newMessageStore creates an empty message store.
func newMessageStore(hooks Hooks) *MessageStore {
	return &MessageStore{
		messages: make(map[string]*models.Message),
		hooks:    hooks,
	}
}

// Get returns a copy of the cached message, if present.
func (s *MessageStore) Get(id string) (*models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, false
	}
	return message.Clone(), true
}

// Has reports whether a message id is cached.
func (s *MessageStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.messages[id]
	return ok
}

// Count returns the number of cached messages.
func (s *MessageStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// FetchOrCreate returns the cached message for the payload's id, inserting
// the payload when the id has not been seen. created reports whether the
// payload was inserted, which redelivered notifications use to stay
// idempotent.
func (s *MessageStore) FetchOrCreate(payload *models.Message) (*models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message, ok := s.messages[payload.ID]; ok {
		return message.Clone(), false
	}

	message := payload.Clone()
	s.messages[message.ID] = message
	return message.Clone(), true
}

// Patch applies a merge patch to the cached message and fires the message
// update hook. Patching an uncached message is a no-op returning nil.
func (s *MessageStore) Patch(id string, patch []byte) (*models.Message, error) {
	s.mu.Lock()
	message, ok := s.messages[id]
	if !ok {
		s.mu.Unlock()
		return nil, nil
	}
	if err := message.ApplyPatch(patch); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("patching message %s: %w", id, err)
	}
	updated := message.Clone()
	s.mu.Unlock()

	if s.hooks.OnMessageUpdate != nil {
		s.hooks.OnMessageUpdate(updated)
	}
	return updated.Clone(), nil
}

// Delete removes the message from the cache and fires the message delete
// hook with the removed value. Deleting an uncached message is a no-op.
func (s *MessageStore) Delete(id string) (*models.Message, bool) {
	s.mu.Lock()
	message, ok := s.messages[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	delete(s.messages, id)
	removed := message.Clone()
	s.mu.Unlock()

	if s.hooks.OnMessageDelete != nil {
		s.hooks.OnMessageDelete(removed)
	}
	return removed.Clone(), true
}
