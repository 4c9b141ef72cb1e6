package state

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/driftline/go-sdk/pkg/core"
	"github.com/driftline/go-sdk/pkg/models"
)

// UserStore caches users by id with thread safety.
type UserStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	hydrator Hydrator
	hooks    Hooks
}

// newUserStore creates an empty user store.
func newUserStore(hydrator Hydrator, hooks Hooks) *UserStore {
	return &UserStore{
		users:    make(map[string]*models.User),
		hydrator: hydrator,
		hooks:    hooks,
	}
}

// Get returns a copy of the cached user, if present.
func (s *UserStore) Get(id string) (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return user.Clone(), true
}

// List returns copies of all cached users, ordered by id.
func (s *UserStore) List() []*models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		list = append(list, user.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Count returns the number of cached users.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// FetchOrCreate returns the cached user for id. When absent it inserts the
// supplied payload, or resolves the user through the hydrator when no payload
// is available. Resolving without payload or hydrator fails with
// core.ErrNotFound.
func (s *UserStore) FetchOrCreate(ctx context.Context, id string, payload *models.User) (*models.User, error) {
	if user, ok := s.Get(id); ok {
		return user, nil
	}

	if payload == nil {
		if s.hydrator == nil {
			return nil, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
		}
		fetched, err := s.hydrator.FetchUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("hydrating user %s: %w", id, err)
		}
		payload = fetched
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have inserted the user while we were fetching.
	if user, ok := s.users[id]; ok {
		return user.Clone(), nil
	}

	user := payload.Clone()
	if user.ID == "" {
		user.ID = id
	}
	s.users[id] = user
	return user.Clone(), nil
}

// Patch applies a merge patch to the cached user and fires the user update
// hook. Patching an uncached user is a no-op returning nil.
func (s *UserStore) Patch(id string, patch []byte) (*models.User, error) {
	s.mu.Lock()
	user, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		return nil, nil
	}
	if err := user.ApplyPatch(patch); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("patching user %s: %w", id, err)
	}
	updated := user.Clone()
	s.mu.Unlock()

	s.notifyUpdate(updated)
	return updated.Clone(), nil
}

// MarkSelf flags the cached user as the session user. It runs during initial
// hydration, before readiness is announced, so unlike SetRelationship it
// fires no update hook. Uncached users are a no-op.
func (s *UserStore) MarkSelf(id string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, false
	}
	user.Relationship = models.RelationshipSelf
	return user.Clone(), true
}

// SetRelationship updates the cached user's relationship to the session user
// and fires the user update hook. Uncached users are a no-op.
func (s *UserStore) SetRelationship(id string, relationship models.Relationship) (*models.User, bool) {
	s.mu.Lock()
	user, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	user.Relationship = relationship
	updated := user.Clone()
	s.mu.Unlock()

	s.notifyUpdate(updated)
	return updated.Clone(), true
}

// SetPresence updates the cached user's online flag and fires the user
// update hook. Uncached users are a no-op.
func (s *UserStore) SetPresence(id string, online bool) (*models.User, bool) {
	s.mu.Lock()
	user, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	user.Online = online
	updated := user.Clone()
	s.mu.Unlock()

	s.notifyUpdate(updated)
	return updated.Clone(), true
}

// notifyUpdate fires the user update hook outside the store lock so handlers
// can safely call back into the store.
func (s *UserStore) notifyUpdate(user *models.User) {
	if s.hooks.OnUserUpdate != nil {
		s.hooks.OnUserUpdate(user)
	}
}
