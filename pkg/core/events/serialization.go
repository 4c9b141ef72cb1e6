package events

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// EventFromJSON parses a raw gateway frame into its typed notification
func EventFromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to parse notification: invalid JSON")
	}

	// Probe the type tag without decoding the whole frame
	tag := gjson.GetBytes(data, "type")
	if !tag.Exists() || tag.Type != gjson.String || tag.Str == "" {
		return nil, fmt.Errorf("notification type tag is missing")
	}

	eventType := EventType(tag.Str)

	// Create the appropriate notification based on the type tag
	var event Event
	switch eventType {
	case EventTypeAuthenticate:
		event = &AuthenticateEvent{}
	case EventTypeAuthenticated:
		event = &AuthenticatedEvent{}
	case EventTypeError:
		event = &ErrorEvent{}
	case EventTypeReady:
		event = &ReadyEvent{}
	case EventTypeMessage:
		event = &MessageEvent{}
	case EventTypeMessageUpdate:
		event = &MessageUpdateEvent{}
	case EventTypeMessageDelete:
		event = &MessageDeleteEvent{}
	case EventTypeChannelCreate:
		event = &ChannelCreateEvent{}
	case EventTypeChannelUpdate:
		event = &ChannelUpdateEvent{}
	case EventTypeChannelGroupJoin:
		event = &ChannelGroupJoinEvent{}
	case EventTypeChannelGroupLeave:
		event = &ChannelGroupLeaveEvent{}
	case EventTypeChannelDelete:
		event = &ChannelDeleteEvent{}
	case EventTypeUserRelationship:
		event = &UserRelationshipEvent{}
	case EventTypeUserPresence:
		event = &UserPresenceEvent{}
	default:
		// Unrecognized notification types are preserved rather than
		// rejected so the dispatcher can skip them without dropping
		// the connection.
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return &UnknownEvent{
			BaseEvent: NewBaseEvent(eventType),
			Raw:       raw,
		}, nil
	}

	// Unmarshal into the specific notification type
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s notification: %w", eventType, err)
	}

	return event, nil
}
