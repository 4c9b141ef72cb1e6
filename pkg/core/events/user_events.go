package events

import (
	"encoding/json"
	"fmt"

	"github.com/driftline/go-sdk/pkg/models"
)

// UserRelationshipEvent announces a change in the relationship between the
// session user and another user.
type UserRelationshipEvent struct {
	*BaseEvent
	UserID string              `json:"user"`
	Status models.Relationship `json:"status"`
}

// NewUserRelationshipEvent creates a new user relationship event
func NewUserRelationshipEvent(userID string, status models.Relationship) *UserRelationshipEvent {
	return &UserRelationshipEvent{
		BaseEvent: NewBaseEvent(EventTypeUserRelationship),
		UserID:    userID,
		Status:    status,
	}
}

// Validate validates the user relationship event
func (e *UserRelationshipEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	if err := e.Status.Validate(); err != nil {
		return err
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *UserRelationshipEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// UserPresenceEvent announces a change in a user's online state.
type UserPresenceEvent struct {
	*BaseEvent
	UserID string `json:"id"`
	Online bool   `json:"online"`
}

// NewUserPresenceEvent creates a new user presence event
func NewUserPresenceEvent(userID string, online bool) *UserPresenceEvent {
	return &UserPresenceEvent{
		BaseEvent: NewBaseEvent(EventTypeUserPresence),
		UserID:    userID,
		Online:    online,
	}
}

// Validate validates the user presence event
func (e *UserPresenceEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *UserPresenceEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
