package models

import "fmt"

// Relationship describes how the session user relates to another user.
type Relationship string

const (
	RelationshipNone         Relationship = "None"
	RelationshipSelf         Relationship = "User"
	RelationshipFriend       Relationship = "Friend"
	RelationshipOutgoing     Relationship = "Outgoing"
	RelationshipIncoming     Relationship = "Incoming"
	RelationshipBlocked      Relationship = "Blocked"
	RelationshipBlockedOther Relationship = "BlockedOther"
)

// Validate validates that a relationship is one of the allowed values.
func (r Relationship) Validate() error {
	switch r {
	case RelationshipNone, RelationshipSelf, RelationshipFriend, RelationshipOutgoing,
		RelationshipIncoming, RelationshipBlocked, RelationshipBlockedOther:
		return nil
	default:
		return fmt.Errorf("invalid relationship: %s", r)
	}
}

// User represents another account on the node, or the session user itself.
type User struct {
	ID           string       `json:"_id"`
	Username     string       `json:"username"`
	Relationship Relationship `json:"relationship,omitempty"`
	Online       bool         `json:"online,omitempty"`
	Flags        int          `json:"flags,omitempty"`
}

// Validate validates the user structure.
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user ID is required")
	}
	if u.Relationship != "" {
		if err := u.Relationship.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPatch merges a partial update from the gateway into the user.
func (u *User) ApplyPatch(patch []byte) error {
	return mergePatch(u, patch)
}

// Self reports whether this user is the session user.
func (u *User) Self() bool {
	return u.Relationship == RelationshipSelf
}

// Clone returns an independent copy of the user.
func (u *User) Clone() *User {
	clone := *u
	return &clone
}
