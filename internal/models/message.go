// Package models defines the client-side chat data model and the wire
// types exchanged with the backend.
package models

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Message roles. The client model only knows user and assistant; system
// prompts are a backend concern.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTitle is the placeholder title a conversation carries until one
// is derived from its first user message or assigned by the backend.
const DefaultTitle = "New Conversation"

// TitleMaxLen is the number of characters kept when deriving a
// conversation title from the first user message.
const TitleMaxLen = 50

// Message is a single chat message. ID is unique within a conversation;
// Timestamp is fixed at creation. Content is mutable only while the
// message is the open assistant slot of a streaming exchange.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
}

// Conversation is an ordered message sequence with display metadata.
// Timestamps are milliseconds since epoch; UpdatedAt moves on message
// appends only, never on title edits.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// msgCounter disambiguates messages created within the same millisecond.
var msgCounter atomic.Uint64

// NewMessage creates a message with a fresh ID and timestamp. The ID
// combines the creation time, a monotonic counter, and the role, so two
// messages minted back to back never collide.
func NewMessage(role, content string) Message {
	now := time.Now()
	return Message{
		ID:        fmt.Sprintf("msg-%d-%d-%s", now.UnixMilli(), msgCounter.Add(1), role),
		Role:      role,
		Content:   content,
		Timestamp: now.UnixMilli(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message. Content may be empty
// for a streaming placeholder.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// IsUser reports whether the message has the user role.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant reports whether the message has the assistant role.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// NewConversation creates an empty conversation with a locally assigned
// ID and the default placeholder title. The backend may later replace the
// ID and title once it acknowledges the conversation.
func NewConversation() Conversation {
	now := time.Now().UnixMilli()
	return Conversation{
		ID:        fmt.Sprintf("conv-%d-%d", now, msgCounter.Add(1)),
		Title:     DefaultTitle,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasDefaultTitle reports whether the conversation still carries the
// placeholder title.
func (c Conversation) HasDefaultTitle() bool {
	return c.Title == "" || c.Title == DefaultTitle
}

// LastMessage returns the most recent message, if any.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// DeriveTitle derives a conversation title from the first user message:
// the first TitleMaxLen characters, with an ellipsis marker when the text
// was longer. Truncation counts runes so multibyte text is never split.
func DeriveTitle(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return DefaultTitle
	}
	if len(runes) <= TitleMaxLen {
		return string(runes)
	}
	return string(runes[:TitleMaxLen]) + "..."
}
