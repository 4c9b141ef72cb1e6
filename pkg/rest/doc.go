// Package rest provides the HTTP client for the Driftline REST API.
//
// The REST client serves two roles. Applications use it directly to query
// node metadata, authenticate, and send messages. The realtime client uses it
// as the cache's hydrator: when a gateway notification references an object
// that is not cached yet, the dispatcher resolves it through FetchUser,
// FetchChannel, or FetchMessage. Concurrent fetches of the same object are
// collapsed into a single request.
//
// Example usage:
//
//	import "github.com/driftline/go-sdk/pkg/rest"
//
//	api, err := rest.New(rest.Config{
//		APIBase: "https://api.driftline.chat",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Fetch the node configuration (carries the gateway URL)
//	info, err := api.NodeInfo(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Authenticate and send a message
//	session, err := api.Login(ctx, "alice@example.com", "hunter2", "driftline-cli")
//	if err != nil {
//		log.Fatal(err)
//	}
//	_, err = api.SendMessage(ctx, "ch-1", "hello from Go")
package rest
