package events

import (
	"encoding/json"
	"fmt"

	"github.com/driftline/go-sdk/pkg/models"
)

// MessageEvent delivers a newly sent message. The message fields are inlined
// in the frame next to the type tag.
type MessageEvent struct {
	*BaseEvent
	models.Message
}

// NewMessageEvent creates a new message event
func NewMessageEvent(message models.Message) *MessageEvent {
	return &MessageEvent{
		BaseEvent: NewBaseEvent(EventTypeMessage),
		Message:   message,
	}
}

// Validate validates the message event
func (e *MessageEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	return e.Message.Validate()
}

// ToJSON serializes the event to JSON
func (e *MessageEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MessageUpdateEvent carries a merge patch for an existing message.
type MessageUpdateEvent struct {
	*BaseEvent
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// NewMessageUpdateEvent creates a new message update event
func NewMessageUpdateEvent(id string, data json.RawMessage) *MessageUpdateEvent {
	return &MessageUpdateEvent{
		BaseEvent: NewBaseEvent(EventTypeMessageUpdate),
		ID:        id,
		Data:      data,
	}
}

// Validate validates the message update event
func (e *MessageUpdateEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.ID == "" {
		return fmt.Errorf("message ID is required")
	}

	if len(e.Data) == 0 {
		return fmt.Errorf("patch data is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *MessageUpdateEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MessageDeleteEvent announces that a message was removed from its channel.
type MessageDeleteEvent struct {
	*BaseEvent
	ID        string `json:"id"`
	ChannelID string `json:"channel"`
}

// NewMessageDeleteEvent creates a new message delete event
func NewMessageDeleteEvent(id, channelID string) *MessageDeleteEvent {
	return &MessageDeleteEvent{
		BaseEvent: NewBaseEvent(EventTypeMessageDelete),
		ID:        id,
		ChannelID: channelID,
	}
}

// Validate validates the message delete event
func (e *MessageDeleteEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.ID == "" {
		return fmt.Errorf("message ID is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *MessageDeleteEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
