package runtime

import (
	"sync"

	"github.com/taskweave/go-assistant/src/models"
)

// MessageRole identifies the author of a conversation entry.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleAgent  MessageRole = "agent"
	RoleStatus MessageRole = "status"
)

// ConversationMessage is one entry of the session transcript. Status entries
// are transient: they exist while their condition holds and are pruned once
// it resolves.
type ConversationMessage struct {
	Role    MessageRole
	Content string
}

// Conversation is the append-only session transcript. Entries are never
// reordered; the only removal permitted is pruning of status entries.
type Conversation struct {
	mu       sync.RWMutex
	messages []ConversationMessage
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message at the end of the transcript.
func (c *Conversation) Append(role MessageRole, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, ConversationMessage{Role: role, Content: content})
}

// PruneStatus removes every transient status entry, keeping the relative
// order of the remaining messages.
func (c *Conversation) PruneStatus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.messages[:0]
	for _, msg := range c.messages {
		if msg.Role != RoleStatus {
			kept = append(kept, msg)
		}
	}
	c.messages = kept
}

// HasStatus reports whether a transient status entry is currently present.
func (c *Conversation) HasStatus() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, msg := range c.messages {
		if msg.Role == RoleStatus {
			return true
		}
	}
	return false
}

// Messages returns a snapshot of the transcript.
func (c *Conversation) Messages() []ConversationMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ConversationMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// ModelMessages renders the transcript for the reasoning backend. Status
// entries are local UI state and are never sent upstream.
func (c *Conversation) ModelMessages() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Message, 0, len(c.messages))
	for _, msg := range c.messages {
		switch msg.Role {
		case RoleUser:
			out = append(out, models.Message{Role: models.RoleUser, Content: msg.Content})
		case RoleAgent:
			out = append(out, models.Message{Role: models.RoleAssistant, Content: msg.Content})
		}
	}
	return out
}
