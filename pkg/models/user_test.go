package models

import "testing"

func TestRelationshipValidation(t *testing.T) {
	tests := []struct {
		name         string
		relationship Relationship
		wantErr      bool
	}{
		{"None", RelationshipNone, false},
		{"Self", RelationshipSelf, false},
		{"Friend", RelationshipFriend, false},
		{"Outgoing", RelationshipOutgoing, false},
		{"Incoming", RelationshipIncoming, false},
		{"Blocked", RelationshipBlocked, false},
		{"BlockedOther", RelationshipBlockedOther, false},
		{"Invalid", Relationship("Nemesis"), true},
		{"Empty", Relationship(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.relationship.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Relationship.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserValidation(t *testing.T) {
	t.Run("valid user", func(t *testing.T) {
		user := &User{ID: "user-1", Username: "alice", Relationship: RelationshipFriend}
		if err := user.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("missing ID", func(t *testing.T) {
		user := &User{Username: "alice"}
		if err := user.Validate(); err == nil {
			t.Error("Validate() error = nil, want error")
		}
	})

	t.Run("relationship may be absent", func(t *testing.T) {
		user := &User{ID: "user-1", Username: "alice"}
		if err := user.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})
}

func TestUserSelf(t *testing.T) {
	self := &User{ID: "user-1", Relationship: RelationshipSelf}
	if !self.Self() {
		t.Error("Self() = false for the session user")
	}

	friend := &User{ID: "user-2", Relationship: RelationshipFriend}
	if friend.Self() {
		t.Error("Self() = true for a friend")
	}
}

func TestUserApplyPatch(t *testing.T) {
	user := &User{
		ID:           "user-1",
		Username:     "alice",
		Relationship: RelationshipFriend,
		Online:       true,
	}

	if err := user.ApplyPatch([]byte(`{"online":false,"flags":4}`)); err != nil {
		t.Fatalf("ApplyPatch() unexpected error = %v", err)
	}

	if user.Online {
		t.Error("Online = true, want patched to false")
	}
	if user.Flags != 4 {
		t.Errorf("Flags = %d, want 4", user.Flags)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want untouched alice", user.Username)
	}
	if user.Relationship != RelationshipFriend {
		t.Errorf("Relationship = %q, want untouched Friend", user.Relationship)
	}
}
