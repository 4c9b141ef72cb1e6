// Package events defines the typed notifications exchanged with the Driftline
// realtime gateway.
//
// Every frame on the gateway socket is a JSON object carrying a "type"
// discriminator. This package models the protocol as a closed tagged union:
// one Go struct per notification kind, all implementing the Event interface.
// Unrecognized discriminators decode into UnknownEvent rather than failing,
// so an older SDK keeps working against a newer gateway.
//
// Inbound kinds cover the authentication handshake (Authenticated, Error,
// Ready) and incremental state changes (Message, MessageUpdate,
// MessageDelete, ChannelCreate, ChannelUpdate, ChannelGroupJoin,
// ChannelGroupLeave, ChannelDelete, UserRelationship, UserPresence). The only
// outbound kind sent by the SDK is Authenticate.
//
// Example usage:
//
//	ev, err := events.EventFromJSON(frame)
//	if err != nil {
//		log.Fatal(err)
//	}
//	switch ev := ev.(type) {
//	case *events.MessageEvent:
//		fmt.Println("new message:", ev.Content)
//	case *events.UnknownEvent:
//		// ignore kinds this SDK does not know about
//	}
package events
