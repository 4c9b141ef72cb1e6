package events

import (
	"encoding/json"
	"fmt"
)

// EventType represents the type of a gateway notification
type EventType string

// Gateway notification type constants - matching the wire protocol
const (
	EventTypeAuthenticate      EventType = "Authenticate"
	EventTypeAuthenticated     EventType = "Authenticated"
	EventTypeError             EventType = "Error"
	EventTypeReady             EventType = "Ready"
	EventTypeMessage           EventType = "Message"
	EventTypeMessageUpdate     EventType = "MessageUpdate"
	EventTypeMessageDelete     EventType = "MessageDelete"
	EventTypeChannelCreate     EventType = "ChannelCreate"
	EventTypeChannelUpdate     EventType = "ChannelUpdate"
	EventTypeChannelGroupJoin  EventType = "ChannelGroupJoin"
	EventTypeChannelGroupLeave EventType = "ChannelGroupLeave"
	EventTypeChannelDelete     EventType = "ChannelDelete"
	EventTypeUserRelationship  EventType = "UserRelationship"
	EventTypeUserPresence      EventType = "UserPresence"

	// EventTypeUnknown represents an unrecognized notification type
	EventTypeUnknown EventType = "Unknown"
)

// validEventTypes is a map for O(1) lookup of valid notification types
var validEventTypes = map[EventType]bool{
	EventTypeAuthenticate:      true,
	EventTypeAuthenticated:     true,
	EventTypeError:             true,
	EventTypeReady:             true,
	EventTypeMessage:           true,
	EventTypeMessageUpdate:     true,
	EventTypeMessageDelete:     true,
	EventTypeChannelCreate:     true,
	EventTypeChannelUpdate:     true,
	EventTypeChannelGroupJoin:  true,
	EventTypeChannelGroupLeave: true,
	EventTypeChannelDelete:     true,
	EventTypeUserRelationship:  true,
	EventTypeUserPresence:      true,
}

// Event defines the common interface for all gateway notifications
type Event interface {
	// Type returns the notification type
	Type() EventType

	// Validate validates the notification structure and content
	Validate() error

	// ToJSON serializes the notification to its wire representation
	ToJSON() ([]byte, error)
}

// BaseEvent provides the type discriminator shared by all notifications
type BaseEvent struct {
	EventType EventType `json:"type"`
}

// Type returns the notification type
func (b *BaseEvent) Type() EventType {
	return b.EventType
}

// NewBaseEvent creates a new base event with the given type
func NewBaseEvent(eventType EventType) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
	}
}

// Validate validates the base event structure
func (b *BaseEvent) Validate() error {
	if b.EventType == "" {
		return fmt.Errorf("notification type is required")
	}

	if !isValidEventType(b.EventType) {
		return fmt.Errorf("invalid notification type '%s'", b.EventType)
	}

	return nil
}

// isValidEventType checks if the given notification type is valid
func isValidEventType(eventType EventType) bool {
	return validEventTypes[eventType]
}

// UnknownEvent carries a notification whose type this SDK does not recognize.
// The dispatcher ignores it; the raw frame stays available for observability.
type UnknownEvent struct {
	*BaseEvent
	Raw json.RawMessage `json:"-"`
}

// Validate validates the unknown event; any non-empty type tag is accepted.
func (e *UnknownEvent) Validate() error {
	if e.EventType == "" {
		return fmt.Errorf("notification type is required")
	}
	return nil
}

// ToJSON returns the original frame when available.
func (e *UnknownEvent) ToJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(e)
}
