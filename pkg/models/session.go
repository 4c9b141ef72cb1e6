package models

import "fmt"

// Session holds the credentials that authenticate a client against both the
// REST API and the realtime gateway.
type Session struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Token  string `json:"session_token"`
}

// Validate validates that the session carries usable credentials.
func (s *Session) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("session user_id is required")
	}
	if s.Token == "" {
		return fmt.Errorf("session token is required")
	}
	return nil
}

// Configuration is the node metadata served from the API root. The client
// needs it before connecting: it carries the gateway WebSocket URL.
type Configuration struct {
	Version  string                `json:"version"`
	WS       string                `json:"ws"`
	App      string                `json:"app,omitempty"`
	Features ConfigurationFeatures `json:"features,omitempty"`
}

// ConfigurationFeatures advertises optional capabilities of the node.
type ConfigurationFeatures struct {
	Email      bool `json:"email,omitempty"`
	InviteOnly bool `json:"invite_only,omitempty"`
}

// Validate validates that the configuration is usable for connecting.
func (c *Configuration) Validate() error {
	if c.WS == "" {
		return fmt.Errorf("configuration ws URL is required")
	}
	return nil
}
