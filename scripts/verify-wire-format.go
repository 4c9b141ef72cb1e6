// Gateway Wire Format Verification Script
//
// This script verifies that the SDK's notification encoding matches the
// gateway's JSON wire format: type tags, field naming, inline payloads,
// merge-patch semantics and the unknown-type fallback.
//
// Run with: go run scripts/verify-wire-format.go

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/driftline/go-sdk/pkg/core/events"
	"github.com/driftline/go-sdk/pkg/models"
)

func main() {
	fmt.Println("🔍 Verifying Gateway Wire Format...")
	fmt.Println(strings.Repeat("=", 50))

	// Test 1: Verify type tags for every notification kind
	fmt.Println("\n1. Testing Notification Type Tags...")
	testTypeTags()

	// Test 2: Verify JSON field naming
	fmt.Println("\n2. Testing JSON Field Naming...")
	testFieldNaming()

	// Test 3: Verify payload objects are inlined next to the tag
	fmt.Println("\n3. Testing Inline Object Payloads...")
	testInlinePayloads()

	// Test 4: Verify merge patch semantics
	fmt.Println("\n4. Testing Merge Patch Semantics...")
	testMergePatches()

	// Test 5: Verify the unknown-type fallback
	fmt.Println("\n5. Testing Unknown Type Fallback...")
	testUnknownFallback()

	fmt.Println("\n✅ All wire format tests passed!")
	fmt.Println("🎉 Go SDK notification encoding matches the gateway protocol")
}

func testTypeTags() {
	session := models.Session{ID: "sess-1", UserID: "user-1", Token: "token-1"}
	message := models.Message{ID: "msg-1", ChannelID: "ch-1", Author: "user-2", Content: "hello"}
	channel := models.Channel{ID: "ch-1", ChannelType: models.ChannelTypeGroup, Name: "plans"}

	samples := []events.Event{
		events.NewAuthenticateEvent(session),
		events.NewAuthenticatedEvent(),
		events.NewErrorEvent("InvalidSession"),
		events.NewReadyEvent([]*models.User{}, []*models.Channel{}),
		events.NewMessageEvent(message),
		events.NewMessageUpdateEvent("msg-1", json.RawMessage(`{"content":"edited"}`)),
		events.NewMessageDeleteEvent("msg-1", "ch-1"),
		events.NewChannelCreateEvent(channel),
		events.NewChannelUpdateEvent("ch-1", json.RawMessage(`{"name":"renamed"}`)),
		events.NewChannelGroupJoinEvent("ch-1", "user-2"),
		events.NewChannelGroupLeaveEvent("ch-1", "user-2"),
		events.NewChannelDeleteEvent("ch-1"),
		events.NewUserRelationshipEvent("user-2", models.RelationshipFriend),
		events.NewUserPresenceEvent("user-2", true),
	}

	fmt.Printf("   - Checking %d notification kinds...\n", len(samples))
	for _, event := range samples {
		wire, err := event.ToJSON()
		if err != nil {
			log.Fatalf("   ❌ Failed to encode %s: %v", event.Type(), err)
		}

		tag := gjson.GetBytes(wire, "type")
		if tag.Str != string(event.Type()) {
			log.Fatalf("   ❌ %s carries wrong type tag: got %q", event.Type(), tag.Str)
		}

		decoded, err := events.EventFromJSON(wire)
		if err != nil {
			log.Fatalf("   ❌ Failed to decode %s frame: %v", event.Type(), err)
		}
		if decoded.Type() != event.Type() {
			log.Fatalf("   ❌ %s decoded as %s", event.Type(), decoded.Type())
		}
		if _, unknown := decoded.(*events.UnknownEvent); unknown {
			log.Fatalf("   ❌ Known type %s fell through to the unknown fallback", event.Type())
		}
	}
	fmt.Printf("   ✅ All %d type tags round-trip\n", len(samples))
}

func testFieldNaming() {
	// The authenticate frame is the one frame the SDK writes, so its field
	// names must match what the gateway parses.
	auth := events.NewAuthenticateEvent(models.Session{
		ID:     "sess-1",
		UserID: "user-1",
		Token:  "token-1",
	})
	wire, err := auth.ToJSON()
	if err != nil {
		log.Fatalf("   ❌ Failed to encode authenticate frame: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(wire, &frame); err != nil {
		log.Fatalf("   ❌ Failed to parse authenticate frame: %v", err)
	}

	for _, field := range []string{"type", "id", "user_id", "session_token"} {
		if _, exists := frame[field]; !exists {
			log.Fatalf("   ❌ Missing expected field in authenticate frame: %s", field)
		}
	}

	// Message payloads use the gateway's underscore id convention.
	wire, err = events.NewMessageEvent(models.Message{
		ID: "msg-1", ChannelID: "ch-1", Author: "user-2", Content: "hello",
	}).ToJSON()
	if err != nil {
		log.Fatalf("   ❌ Failed to encode message frame: %v", err)
	}

	frame = nil
	if err := json.Unmarshal(wire, &frame); err != nil {
		log.Fatalf("   ❌ Failed to parse message frame: %v", err)
	}

	for _, field := range []string{"type", "_id", "channel", "author", "content"} {
		if _, exists := frame[field]; !exists {
			log.Fatalf("   ❌ Missing expected field in message frame: %s", field)
		}
	}
	if _, exists := frame["nonce"]; exists {
		log.Fatal("   ❌ Empty nonce must be omitted from the wire")
	}

	fmt.Println("   ✅ JSON field naming matches the gateway protocol")
}

func testInlinePayloads() {
	// Message and ChannelCreate frames inline the object's fields next to
	// the type tag rather than nesting them under a wrapper key.
	wire, err := events.NewMessageEvent(models.Message{
		ID: "msg-1", ChannelID: "ch-1", Author: "user-2", Content: "hello",
	}).ToJSON()
	if err != nil {
		log.Fatalf("   ❌ Failed to encode message frame: %v", err)
	}
	for _, wrapper := range []string{"message", "Message", "data"} {
		if gjson.GetBytes(wire, wrapper).Exists() {
			log.Fatalf("   ❌ Message frame nests its payload under %q", wrapper)
		}
	}

	channel := models.Channel{
		ID:          "ch-1",
		ChannelType: models.ChannelTypeGroup,
		Name:        "plans",
		Recipients:  []string{"user-1", "user-2"},
	}
	channel.SetLastMessage(&models.Message{ID: "msg-1", Author: "user-2", Content: "hello"})

	wire, err = events.NewChannelCreateEvent(channel).ToJSON()
	if err != nil {
		log.Fatalf("   ❌ Failed to encode channel create frame: %v", err)
	}
	if got := gjson.GetBytes(wire, "channel_type").Str; got != "Group" {
		log.Fatalf("   ❌ channel_type mismatch: got %q, expected Group", got)
	}
	// The last-message digest keeps its preview under the wire name "short".
	if got := gjson.GetBytes(wire, "last_message.short").Str; got != "hello" {
		log.Fatalf("   ❌ last_message.short mismatch: got %q, expected hello", got)
	}

	// A hand-written inbound frame decodes into the inlined payload.
	decoded, err := events.EventFromJSON([]byte(
		`{"type":"Message","_id":"msg-9","channel":"ch-1","author":"user-2","content":"inbound"}`))
	if err != nil {
		log.Fatalf("   ❌ Failed to decode inbound message frame: %v", err)
	}
	messageEvent, ok := decoded.(*events.MessageEvent)
	if !ok {
		log.Fatalf("   ❌ Inbound message decoded as %T", decoded)
	}
	if messageEvent.Message.Content != "inbound" {
		log.Fatalf("   ❌ Inbound content mismatch: got %q", messageEvent.Message.Content)
	}

	fmt.Println("   ✅ Object payloads are inlined next to the type tag")
}

func testMergePatches() {
	channel := models.Channel{
		ID:          "ch-1",
		ChannelType: models.ChannelTypeGroup,
		Name:        "plans",
		Description: "scratch space",
		Recipients:  []string{"user-1"},
	}

	patch := []byte(`{"name":"weekend plans","description":null,"recipients":["user-1","user-1","user-2",""]}`)
	if err := channel.ApplyPatch(patch); err != nil {
		log.Fatalf("   ❌ Failed to apply channel patch: %v", err)
	}
	channel.Sync()

	if channel.Name != "weekend plans" {
		log.Fatalf("   ❌ Patch did not rename channel: got %q", channel.Name)
	}
	if channel.Description != "" {
		log.Fatalf("   ❌ Null did not clear description: got %q", channel.Description)
	}
	if len(channel.Recipients) != 2 || channel.Recipients[0] != "user-1" || channel.Recipients[1] != "user-2" {
		log.Fatalf("   ❌ Recipients not re-synchronized: got %v", channel.Recipients)
	}
	if channel.ChannelType != models.ChannelTypeGroup {
		log.Fatalf("   ❌ Patch disturbed untouched fields: channel_type %q", channel.ChannelType)
	}

	message := models.Message{ID: "msg-1", ChannelID: "ch-1", Author: "user-2", Content: "hello"}
	if err := message.ApplyPatch([]byte(`{"content":"edited"}`)); err != nil {
		log.Fatalf("   ❌ Failed to apply message patch: %v", err)
	}
	if message.Content != "edited" {
		log.Fatalf("   ❌ Patch did not edit message: got %q", message.Content)
	}
	if message.Author != "user-2" {
		log.Fatalf("   ❌ Patch disturbed untouched fields: author %q", message.Author)
	}

	fmt.Println("   ✅ Merge patches apply with gateway semantics")
}

func testUnknownFallback() {
	frame := []byte(`{"type":"BulkDelete","ids":["msg-1","msg-2"]}`)

	decoded, err := events.EventFromJSON(frame)
	if err != nil {
		log.Fatalf("   ❌ Unrecognized type was rejected: %v", err)
	}

	unknown, ok := decoded.(*events.UnknownEvent)
	if !ok {
		log.Fatalf("   ❌ Unrecognized type decoded as %T", decoded)
	}
	if unknown.Type() != "BulkDelete" {
		log.Fatalf("   ❌ Fallback lost the type tag: got %q", unknown.Type())
	}

	// The original frame must survive byte-for-byte for observability.
	reencoded, err := unknown.ToJSON()
	if err != nil {
		log.Fatalf("   ❌ Failed to re-encode unknown frame: %v", err)
	}
	if !bytes.Equal(reencoded, frame) {
		log.Fatalf("   ❌ Unknown frame not preserved: got %s", reencoded)
	}

	fmt.Println("   ✅ Unrecognized types are preserved, not rejected")
}
