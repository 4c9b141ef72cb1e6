package events

import (
	"encoding/json"
	"fmt"

	"github.com/driftline/go-sdk/pkg/models"
)

// AuthenticateEvent is the credential frame sent by the client immediately
// after the transport opens. It is the only notification the SDK itself
// writes to the gateway.
type AuthenticateEvent struct {
	*BaseEvent
	SessionID string `json:"id,omitempty"`
	UserID    string `json:"user_id"`
	Token     string `json:"session_token"`
}

// NewAuthenticateEvent creates an Authenticate frame from session credentials
func NewAuthenticateEvent(session models.Session) *AuthenticateEvent {
	return &AuthenticateEvent{
		BaseEvent: NewBaseEvent(EventTypeAuthenticate),
		SessionID: session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
	}
}

// Validate validates the authenticate event
func (e *AuthenticateEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	if e.Token == "" {
		return fmt.Errorf("session token is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *AuthenticateEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AuthenticatedEvent confirms that the gateway accepted the session. The
// connection is usable for sending after this point but initial state has not
// been delivered yet.
type AuthenticatedEvent struct {
	*BaseEvent
}

// NewAuthenticatedEvent creates a new authenticated event
func NewAuthenticatedEvent() *AuthenticatedEvent {
	return &AuthenticatedEvent{
		BaseEvent: NewBaseEvent(EventTypeAuthenticated),
	}
}

// ToJSON serializes the event to JSON
func (e *AuthenticatedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ErrorEvent is sent by the gateway when the handshake fails, for example on
// an invalid session token.
type ErrorEvent struct {
	*BaseEvent
	Err string `json:"error"`
}

// NewErrorEvent creates a new error event
func NewErrorEvent(err string) *ErrorEvent {
	return &ErrorEvent{
		BaseEvent: NewBaseEvent(EventTypeError),
		Err:       err,
	}
}

// Validate validates the error event
func (e *ErrorEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	if e.Err == "" {
		return fmt.Errorf("error identifier is required")
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *ErrorEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ReadyEvent carries the initial state snapshot: every user and channel
// visible to the session. Receiving it marks the connection ready.
type ReadyEvent struct {
	*BaseEvent
	Users    []*models.User    `json:"users"`
	Channels []*models.Channel `json:"channels"`
}

// NewReadyEvent creates a new ready event from an initial state snapshot
func NewReadyEvent(users []*models.User, channels []*models.Channel) *ReadyEvent {
	return &ReadyEvent{
		BaseEvent: NewBaseEvent(EventTypeReady),
		Users:     users,
		Channels:  channels,
	}
}

// Validate validates the ready event
func (e *ReadyEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}

	for i, user := range e.Users {
		if user == nil {
			return fmt.Errorf("user[%d] is nil", i)
		}
		if err := user.Validate(); err != nil {
			return fmt.Errorf("user[%d]: %w", i, err)
		}
	}

	for i, channel := range e.Channels {
		if channel == nil {
			return fmt.Errorf("channel[%d] is nil", i)
		}
		if err := channel.Validate(); err != nil {
			return fmt.Errorf("channel[%d]: %w", i, err)
		}
	}

	return nil
}

// ToJSON serializes the event to JSON
func (e *ReadyEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
