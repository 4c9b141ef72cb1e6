// Package client provides the realtime client for the Driftline gateway.
//
// The client owns the connection lifecycle: it dials the gateway over
// WebSocket, performs the Authenticate/Ready handshake, and then consumes the
// ordered notification stream, applying each notification to the in-memory
// cache and surfacing lifecycle and domain events to the application.
//
// Inbound frames are serialized through a per-connection queue drained by a
// single goroutine, so notifications are always applied in arrival order and
// at most one notification's handling runs at a time, even when handling
// suspends on REST hydration. When the connection drops unexpectedly and
// auto-reconnect is enabled, the client redials with exponential backoff
// until it succeeds or Disconnect is called.
//
// Example usage:
//
//	import "github.com/driftline/go-sdk/pkg/client"
//
//	c, err := client.New(client.Config{
//		Configuration: nodeInfo,
//		Session:       session,
//		Hydrator:      api,
//		AutoReconnect: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Disconnect()
//
//	c.OnMessage(func(m *models.Message) {
//		fmt.Printf("[%s] %s\n", m.Author, m.Content)
//	})
//
//	// Blocks until the handshake reaches ready.
//	if err := c.Connect(ctx); err != nil {
//		log.Fatal(err)
//	}
package client
