// Package state provides the in-memory object cache kept in sync by the
// realtime client.
//
// The cache is organized as three stores keyed by object id: users, channels,
// and messages. Each store hands out independent copies, so values returned
// from a store can be read and modified freely without racing the dispatch
// loop that keeps the cache current.
//
// Objects enter the cache through FetchOrCreate, which prefers an inline
// payload from a gateway notification and falls back to the configured
// Hydrator (normally the REST client) when only an id is known. Partial
// updates are applied through the store's Patch methods; deletions go
// through Delete. Applications observe those mutations by registering Hooks.
//
// Example usage:
//
//	import "github.com/driftline/go-sdk/pkg/state"
//
//	cache := state.New(restClient, state.Hooks{
//		OnMessageDelete: func(m *models.Message) {
//			log.Printf("message %s deleted", m.ID)
//		},
//	})
//
//	// Look up a cached channel
//	if channel, ok := cache.Channels().Get("ch-1"); ok {
//		fmt.Println(channel.Name)
//	}
package state
