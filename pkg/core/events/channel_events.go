package events

import (
	"encoding/json"
	"fmt"

	"github.com/driftline/go-sdk/pkg/models"
)

// ChannelCreateEvent delivers a channel the session was just given access to.
// The channel fields are inlined in the frame next to the type tag.
type ChannelCreateEvent struct {
	*BaseEvent
	models.Channel
}

// NewChannelCreateEvent creates a new channel create event
func NewChannelCreateEvent(channel models.Channel) *ChannelCreateEvent {
	return &ChannelCreateEvent{
		BaseEvent: NewBaseEvent(EventTypeChannelCreate),
		Channel:   channel,
	}
}

// Validate validates the channel create event
func (e *ChannelCreateEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	return e.Channel.Validate()
}

// ToJSON serializes the event to JSON
func (e *ChannelCreateEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChannelUpdateEvent carries a merge patch for an existing channel.
type ChannelUpdateEvent struct {
	*BaseEvent
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// NewChannelUpdateEvent creates a new channel update event
func NewChannelUpdateEvent(id string, data json.RawMessage) *ChannelUpdateEvent {
	return &ChannelUpdateEvent{
		BaseEvent: NewBaseEvent(EventTypeChannelUpdate),
		ID:        id,
		Data:      data,
	}
}

// Validate validates the channel update event
func (e *ChannelUpdateEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.ID == "" {
		return fmt.Errorf("channel ID is required")
	}

	if len(e.Data) == 0 {
		return fmt.Errorf("patch data is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *ChannelUpdateEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChannelGroupJoinEvent announces that a user joined a group channel.
type ChannelGroupJoinEvent struct {
	*BaseEvent
	ID     string `json:"id"`
	UserID string `json:"user"`
}

// NewChannelGroupJoinEvent creates a new group join event
func NewChannelGroupJoinEvent(channelID, userID string) *ChannelGroupJoinEvent {
	return &ChannelGroupJoinEvent{
		BaseEvent: NewBaseEvent(EventTypeChannelGroupJoin),
		ID:        channelID,
		UserID:    userID,
	}
}

// Validate validates the group join event
func (e *ChannelGroupJoinEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.ID == "" {
		return fmt.Errorf("channel ID is required")
	}

	if e.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *ChannelGroupJoinEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChannelGroupLeaveEvent announces that a user left a group channel.
type ChannelGroupLeaveEvent struct {
	*BaseEvent
	ID     string `json:"id"`
	UserID string `json:"user"`
}

// NewChannelGroupLeaveEvent creates a new group leave event
func NewChannelGroupLeaveEvent(channelID, userID string) *ChannelGroupLeaveEvent {
	return &ChannelGroupLeaveEvent{
		BaseEvent: NewBaseEvent(EventTypeChannelGroupLeave),
		ID:        channelID,
		UserID:    userID,
	}
}

// Validate validates the group leave event
func (e *ChannelGroupLeaveEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.ID == "" {
		return fmt.Errorf("channel ID is required")
	}

	if e.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *ChannelGroupLeaveEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChannelDeleteEvent announces that a channel was deleted or the session lost
// access to it.
type ChannelDeleteEvent struct {
	*BaseEvent
	ID string `json:"id"`
}

// NewChannelDeleteEvent creates a new channel delete event
func NewChannelDeleteEvent(channelID string) *ChannelDeleteEvent {
	return &ChannelDeleteEvent{
		BaseEvent: NewBaseEvent(EventTypeChannelDelete),
		ID:        channelID,
	}
}

// Validate validates the channel delete event
func (e *ChannelDeleteEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.ID == "" {
		return fmt.Errorf("channel ID is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *ChannelDeleteEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
