package models

import "fmt"

// ChannelType discriminates the channel variants carried on the wire.
type ChannelType string

const (
	ChannelTypeSavedMessages ChannelType = "SavedMessages"
	ChannelTypeDirectMessage ChannelType = "DirectMessage"
	ChannelTypeGroup         ChannelType = "Group"
)

// Validate validates that a channel type is one of the allowed values.
func (t ChannelType) Validate() error {
	switch t {
	case ChannelTypeSavedMessages, ChannelTypeDirectMessage, ChannelTypeGroup:
		return nil
	default:
		return fmt.Errorf("invalid channel type: %s", t)
	}
}

// previewLength is the number of runes of message content retained in a
// channel's last-message summary.
const previewLength = 24

// MessageSummary is the derived last-message digest kept on a channel.
type MessageSummary struct {
	ID      string `json:"_id"`
	Author  string `json:"author"`
	Preview string `json:"short"`
}

// Channel represents a conversation: the user's saved-messages channel, a
// direct message, or a group.
type Channel struct {
	ID          string          `json:"_id"`
	ChannelType ChannelType     `json:"channel_type"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Owner       string          `json:"owner,omitempty"`
	Recipients  []string        `json:"recipients,omitempty"`
	Active      bool            `json:"active,omitempty"`
	LastMessage *MessageSummary `json:"last_message,omitempty"`
}

// Validate validates the channel structure.
func (c *Channel) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("channel ID is required")
	}
	if c.ChannelType != "" {
		if err := c.ChannelType.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Group reports whether the channel can hold an arbitrary member set.
func (c *Channel) Group() bool {
	return c.ChannelType == ChannelTypeGroup
}

// ApplyPatch merges a partial update from the gateway into the channel.
// Callers should invoke Sync afterwards to recompute derived state.
func (c *Channel) ApplyPatch(patch []byte) error {
	return mergePatch(c, patch)
}

// Sync recomputes state derived from patched fields: the recipient list is
// deduplicated with empty ids dropped, and a last-message summary that lost
// its id in a patch is discarded.
func (c *Channel) Sync() {
	if len(c.Recipients) > 0 {
		seen := make(map[string]struct{}, len(c.Recipients))
		recipients := c.Recipients[:0]
		for _, id := range c.Recipients {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			recipients = append(recipients, id)
		}
		c.Recipients = recipients
	}
	if c.LastMessage != nil && c.LastMessage.ID == "" {
		c.LastMessage = nil
	}
}

// AddRecipient adds a user to the channel's member set. Adding an existing
// member is a no-op.
func (c *Channel) AddRecipient(userID string) {
	for _, id := range c.Recipients {
		if id == userID {
			return
		}
	}
	c.Recipients = append(c.Recipients, userID)
}

// RemoveRecipient removes a user from the channel's member set. Removing an
// absent member is a no-op.
func (c *Channel) RemoveRecipient(userID string) {
	for i, id := range c.Recipients {
		if id == userID {
			c.Recipients = append(c.Recipients[:i], c.Recipients[i+1:]...)
			return
		}
	}
}

// SetLastMessage refreshes the channel's last-message summary from a freshly
// delivered message, truncating content to a short fixed-length preview.
func (c *Channel) SetLastMessage(m *Message) {
	c.LastMessage = &MessageSummary{
		ID:      m.ID,
		Author:  m.Author,
		Preview: truncate(m.Content, previewLength),
	}
}

// Clone returns an independent copy of the channel, including its recipient
// list and last-message summary.
func (c *Channel) Clone() *Channel {
	clone := *c
	if c.Recipients != nil {
		clone.Recipients = append([]string(nil), c.Recipients...)
	}
	if c.LastMessage != nil {
		summary := *c.LastMessage
		clone.LastMessage = &summary
	}
	return &clone
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
