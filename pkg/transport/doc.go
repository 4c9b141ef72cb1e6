// Package transport provides the WebSocket channel used to reach the
// Driftline realtime gateway.
//
// The transport is deliberately thin: it dials, hands inbound text frames to
// a callback, and reports errors and closure. Connection lifecycle policy
// (authentication, dispatch ordering, reconnection) lives in pkg/client on
// top of this boundary.
//
// Callback ordering is guaranteed: OnOpen fires before any OnMessage, and
// OnClose fires last, exactly once, regardless of how the connection ended.
// Callbacks run on the transport's read goroutine and must not block.
//
// Example usage:
//
//	import "github.com/driftline/go-sdk/pkg/transport"
//
//	t, err := transport.Dial(ctx, "wss://gateway.driftline.chat", transport.Callbacks{
//		OnMessage: func(data []byte) {
//			fmt.Printf("frame: %s\n", data)
//		},
//		OnClose: func(err error) {
//			fmt.Println("closed:", err)
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer t.Close()
package transport
