package models

import (
	"strings"
	"testing"
)

func TestChannelTypeValidation(t *testing.T) {
	tests := []struct {
		name        string
		channelType ChannelType
		wantErr     bool
	}{
		{"Saved messages", ChannelTypeSavedMessages, false},
		{"Direct message", ChannelTypeDirectMessage, false},
		{"Group", ChannelTypeGroup, false},
		{"Invalid type", ChannelType("Broadcast"), true},
		{"Empty type", ChannelType(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.channelType.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ChannelType.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChannelRecipients(t *testing.T) {
	t.Run("AddRecipient is idempotent", func(t *testing.T) {
		channel := &Channel{
			ID:          "ch-1",
			ChannelType: ChannelTypeGroup,
			Recipients:  []string{"user-1"},
		}

		channel.AddRecipient("user-2")
		channel.AddRecipient("user-2")

		if len(channel.Recipients) != 2 {
			t.Errorf("Recipients = %v, want [user-1 user-2]", channel.Recipients)
		}
	})

	t.Run("RemoveRecipient drops the member", func(t *testing.T) {
		channel := &Channel{
			ID:          "ch-1",
			ChannelType: ChannelTypeGroup,
			Recipients:  []string{"user-1", "user-2", "user-3"},
		}

		channel.RemoveRecipient("user-2")

		if len(channel.Recipients) != 2 {
			t.Fatalf("Recipients = %v, want 2 entries", channel.Recipients)
		}
		for _, id := range channel.Recipients {
			if id == "user-2" {
				t.Errorf("Recipients still contains user-2: %v", channel.Recipients)
			}
		}
	})

	t.Run("RemoveRecipient of absent member is a no-op", func(t *testing.T) {
		channel := &Channel{
			ID:          "ch-1",
			ChannelType: ChannelTypeGroup,
			Recipients:  []string{"user-1"},
		}

		channel.RemoveRecipient("user-9")

		if len(channel.Recipients) != 1 || channel.Recipients[0] != "user-1" {
			t.Errorf("Recipients = %v, want [user-1]", channel.Recipients)
		}
	})
}

func TestChannelSync(t *testing.T) {
	t.Run("deduplicates recipients", func(t *testing.T) {
		channel := &Channel{
			ID:          "ch-1",
			ChannelType: ChannelTypeGroup,
			Recipients:  []string{"user-1", "user-2", "user-1", "", "user-2"},
		}

		channel.Sync()

		want := []string{"user-1", "user-2"}
		if len(channel.Recipients) != len(want) {
			t.Fatalf("Recipients = %v, want %v", channel.Recipients, want)
		}
		for i := range want {
			if channel.Recipients[i] != want[i] {
				t.Errorf("Recipients = %v, want %v", channel.Recipients, want)
				break
			}
		}
	})

	t.Run("drops a last-message summary that lost its id", func(t *testing.T) {
		channel := &Channel{
			ID:          "ch-1",
			ChannelType: ChannelTypeGroup,
			LastMessage: &MessageSummary{Author: "user-1", Preview: "orphaned"},
		}

		channel.Sync()

		if channel.LastMessage != nil {
			t.Errorf("LastMessage = %+v, want nil", channel.LastMessage)
		}
	})
}

func TestChannelSetLastMessage(t *testing.T) {
	t.Run("keeps short content intact", func(t *testing.T) {
		channel := &Channel{ID: "ch-1", ChannelType: ChannelTypeDirectMessage}
		channel.SetLastMessage(&Message{
			ID:        "msg-1",
			ChannelID: "ch-1",
			Author:    "user-2",
			Content:   "short note",
		})

		if channel.LastMessage == nil {
			t.Fatal("LastMessage = nil, want a summary")
		}
		if channel.LastMessage.ID != "msg-1" {
			t.Errorf("summary ID = %q, want msg-1", channel.LastMessage.ID)
		}
		if channel.LastMessage.Preview != "short note" {
			t.Errorf("summary Preview = %q, want the full content", channel.LastMessage.Preview)
		}
	})

	t.Run("truncates long content to the preview length", func(t *testing.T) {
		channel := &Channel{ID: "ch-1", ChannelType: ChannelTypeDirectMessage}
		channel.SetLastMessage(&Message{
			ID:        "msg-2",
			ChannelID: "ch-1",
			Author:    "user-2",
			Content:   strings.Repeat("a", 100),
		})

		if got := len([]rune(channel.LastMessage.Preview)); got != previewLength {
			t.Errorf("summary Preview length = %d runes, want %d", got, previewLength)
		}
	})

	t.Run("truncates on rune boundaries", func(t *testing.T) {
		channel := &Channel{ID: "ch-1", ChannelType: ChannelTypeDirectMessage}
		channel.SetLastMessage(&Message{
			ID:        "msg-3",
			ChannelID: "ch-1",
			Author:    "user-2",
			Content:   strings.Repeat("é", 40),
		})

		preview := channel.LastMessage.Preview
		if got := len([]rune(preview)); got != previewLength {
			t.Errorf("summary Preview length = %d runes, want %d", got, previewLength)
		}
		if preview != strings.Repeat("é", previewLength) {
			t.Errorf("summary Preview = %q, split a rune", preview)
		}
	})
}

func TestChannelApplyPatch(t *testing.T) {
	channel := &Channel{
		ID:          "ch-1",
		ChannelType: ChannelTypeGroup,
		Name:        "ops",
		Description: "operations chatter",
		Recipients:  []string{"user-1", "user-2"},
	}

	if err := channel.ApplyPatch([]byte(`{"name":"ops-renamed","description":null}`)); err != nil {
		t.Fatalf("ApplyPatch() unexpected error = %v", err)
	}

	if channel.Name != "ops-renamed" {
		t.Errorf("Name = %q, want ops-renamed", channel.Name)
	}
	if channel.Description != "" {
		t.Errorf("Description = %q, want cleared by null", channel.Description)
	}
	if channel.ID != "ch-1" {
		t.Errorf("ID = %q, want untouched ch-1", channel.ID)
	}
	if len(channel.Recipients) != 2 {
		t.Errorf("Recipients = %v, want untouched", channel.Recipients)
	}
}

func TestChannelGroup(t *testing.T) {
	group := &Channel{ID: "ch-1", ChannelType: ChannelTypeGroup}
	if !group.Group() {
		t.Error("Group() = false for a group channel")
	}

	dm := &Channel{ID: "ch-2", ChannelType: ChannelTypeDirectMessage}
	if dm.Group() {
		t.Error("Group() = true for a direct message channel")
	}
}
