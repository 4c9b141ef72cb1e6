// Package testutil provides testing utilities and helpers.
//
// The centerpiece is Gateway, an in-process Driftline gateway backed by
// httptest that accepts real WebSocket connections. Tests script it
// connection by connection: wait for the client's Authenticate frame, reply
// with Authenticated and Ready, push notifications, or drop the link to
// exercise reconnection.
//
// This package is internal and should not be imported by external code.
package testutil
