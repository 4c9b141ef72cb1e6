// Package models defines the Driftline object model: users, channels,
// messages, sessions and node configuration, with JSON tags matching the wire
// protocol.
//
// Objects received from the gateway or the REST API are plain structs. The
// gateway delivers partial updates as JSON Merge Patch documents (RFC 7386);
// every cacheable object therefore exposes an ApplyPatch method that merges a
// raw patch into the current value. Derived state that a patch may invalidate
// (for example a channel's recipient list) is recomputed by the object's Sync
// method, which the cache calls after each patch.
//
// Example usage:
//
//	var ch models.Channel
//	_ = json.Unmarshal(payload, &ch)
//	if err := ch.ApplyPatch([]byte(`{"name":"new name"}`)); err != nil {
//		log.Fatal(err)
//	}
package models
