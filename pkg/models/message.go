package models

import (
	"fmt"
	"time"
)

// Message represents a single message inside a channel.
type Message struct {
	ID        string     `json:"_id"`
	Nonce     string     `json:"nonce,omitempty"`
	ChannelID string     `json:"channel"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	Edited    *time.Time `json:"edited,omitempty"`
}

// Validate validates the message structure.
func (m *Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message ID is required")
	}
	if m.ChannelID == "" {
		return fmt.Errorf("message channel is required")
	}
	return nil
}

// ApplyPatch merges a partial update from the gateway into the message.
func (m *Message) ApplyPatch(patch []byte) error {
	return mergePatch(m, patch)
}

// Clone returns an independent copy of the message.
func (m *Message) Clone() *Message {
	clone := *m
	if m.Edited != nil {
		edited := *m.Edited
		clone.Edited = &edited
	}
	return &clone
}
