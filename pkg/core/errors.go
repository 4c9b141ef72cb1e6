package core

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrNoSession is returned by Connect when no session has been attached
	// to the client. Obtain one through rest.Client.Login or supply it in the
	// client configuration.
	ErrNoSession = errors.New("no session available")

	// ErrNoConfiguration is returned by Connect when the node configuration
	// (and with it the gateway URL) has not been fetched or supplied.
	ErrNoConfiguration = errors.New("no node configuration available")

	// ErrConnectionClosed indicates the transport closed before the handshake
	// reached the ready state.
	ErrConnectionClosed = errors.New("connection closed before ready")

	// ErrConnectionReplaced indicates a newer Connect or Disconnect call tore
	// down the attempt this operation was waiting on.
	ErrConnectionReplaced = errors.New("connection replaced")

	// ErrHandshakeTimeout indicates the gateway did not complete the
	// Authenticate/Ready exchange within the configured handshake timeout.
	ErrHandshakeTimeout = errors.New("handshake timed out")

	// ErrNotFound is returned by REST lookups when the object does not exist.
	ErrNotFound = errors.New("not found")
)

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s (value: %v): %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ServerError carries an error notification sent by the gateway during the
// handshake, before the connection reached the ready state.
type ServerError struct {
	// Type is the server-side error identifier (for example
	// "InvalidSession" or "OnboardingNotFinished").
	Type string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("gateway error: %s", e.Type)
}

// CloseError describes an abnormal transport closure.
type CloseError struct {
	Code   int
	Reason string
	Err    error
}

func (e *CloseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transport closed (code %d): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("transport closed (code %d)", e.Code)
}

func (e *CloseError) Unwrap() error {
	return e.Err
}

// APIError represents a non-2xx response from the Driftline REST API.
type APIError struct {
	Status int
	Path   string
	// Type is the machine-readable error identifier from the response body,
	// when the server supplied one.
	Type string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("api error on %s (status %d): %s", e.Path, e.Status, e.Type)
	}
	return fmt.Sprintf("api error on %s (status %d)", e.Path, e.Status)
}
