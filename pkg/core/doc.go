// Package core provides the foundational types shared across the Driftline SDK.
//
// This package defines the connection status enumeration, the typed errors
// surfaced by the realtime client and the REST client, and small shared
// protocol structures. Higher-level packages (client, rest, state) build on
// these types so that applications can branch on failures with errors.Is and
// errors.As instead of string matching.
//
// Example usage:
//
//	import "github.com/driftline/go-sdk/pkg/core"
//
//	err := c.Connect(ctx)
//	var serverErr *core.ServerError
//	if errors.As(err, &serverErr) {
//		// the gateway rejected the handshake
//		log.Println("rejected:", serverErr.Type)
//	}
package core
