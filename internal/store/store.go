// Package store holds the in-memory conversation state the UI renders
// from. It is the single source of truth: StreamSession and user actions
// mutate it through a fixed set of operations, every other component only
// reads.
//
// Every operation is a no-op (logged when verbose) when given an unknown
// conversation id. Races between selection and background deletion are
// expected and must degrade gracefully, so the store never errors for a
// missing id.
package store

import (
	"sync"
	"time"

	"github.com/diogo/chatterm/internal/models"
)

// Store is the authoritative in-memory conversation collection plus the
// UI flags that travel with it (streaming indicator, dismissible error).
// All methods are safe for concurrent use; in practice the bubbletea
// event loop serializes every mutation.
type Store struct {
	mu sync.RWMutex

	conversations []models.Conversation
	currentID     string

	streaming bool
	lastError string

	// Logf, when set, receives diagnostics about dropped operations.
	Logf func(format string, args ...any)
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

// index returns the position of a conversation, or -1. Callers hold mu.
func (s *Store) index(id string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// SetAll replaces the whole collection, typically after the initial load
// from the backend. The current selection survives unless the selected
// conversation no longer exists in the new set.
func (s *Store) SetAll(conversations []models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = make([]models.Conversation, len(conversations))
	copy(s.conversations, conversations)

	if s.currentID != "" && s.index(s.currentID) < 0 {
		s.currentID = ""
	}
}

// Upsert inserts the conversation at the front of the list, or replaces
// it in place when the id is already known, and makes it current.
func (s *Store) Upsert(conv models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(conv.ID); i >= 0 {
		s.conversations[i] = conv
	} else {
		s.conversations = append([]models.Conversation{conv}, s.conversations...)
	}
	s.currentID = conv.ID
}

// AppendMessage appends a message and bumps UpdatedAt. When the message
// is the conversation's first and comes from the user, the title is
// derived from its content.
func (s *Store) AppendMessage(conversationID string, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(conversationID)
	if i < 0 {
		s.logf("store: append to unknown conversation %s", conversationID)
		return
	}

	conv := &s.conversations[i]
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now().UnixMilli()

	if len(conv.Messages) == 1 && msg.IsUser() {
		conv.Title = models.DeriveTitle(msg.Content)
	}
}

// ReplaceLastAssistantContent overwrites the content of the
// conversation's last message, provided that message has the assistant
// role. ID and timestamp are untouched; the operation is an
// idempotent replace, so replayed deliveries self-correct instead of
// duplicating text.
func (s *Store) ReplaceLastAssistantContent(conversationID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(conversationID)
	if i < 0 {
		s.logf("store: replace in unknown conversation %s", conversationID)
		return
	}

	conv := &s.conversations[i]
	if len(conv.Messages) == 0 {
		return
	}
	last := &conv.Messages[len(conv.Messages)-1]
	if !last.IsAssistant() {
		return
	}
	last.Content = content
}

// Rebind renames a conversation in place once the backend assigns its
// authoritative id. The current selection follows the rename. Unknown
// old ids are a logged no-op.
func (s *Store) Rebind(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newID == "" || oldID == newID {
		return
	}
	i := s.index(oldID)
	if i < 0 {
		s.logf("store: rebind of unknown conversation %s", oldID)
		return
	}
	s.conversations[i].ID = newID
	if s.currentID == oldID {
		s.currentID = newID
	}
}

// SetTitle sets the conversation title. UpdatedAt is deliberately not
// bumped: title edits must not reorder the sidebar.
func (s *Store) SetTitle(conversationID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(conversationID)
	if i < 0 {
		s.logf("store: set title on unknown conversation %s", conversationID)
		return
	}
	s.conversations[i].Title = title
}

// ClearMessages empties the conversation's message sequence, used before
// repopulating it from a fresh history fetch.
func (s *Store) ClearMessages(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(conversationID)
	if i < 0 {
		s.logf("store: clear messages on unknown conversation %s", conversationID)
		return
	}
	s.conversations[i].Messages = nil
}

// Remove deletes the conversation from the list. If it was current, the
// selection becomes none.
func (s *Store) Remove(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(conversationID)
	if i < 0 {
		s.logf("store: remove unknown conversation %s", conversationID)
		return
	}
	s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
	if s.currentID == conversationID {
		s.currentID = ""
	}
}

// SetCurrent selects a conversation, or clears the selection when id is
// empty. Selecting an unknown id is a logged no-op.
func (s *Store) SetCurrent(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID == "" {
		s.currentID = ""
		return
	}
	if s.index(conversationID) < 0 {
		s.logf("store: select unknown conversation %s", conversationID)
		return
	}
	s.currentID = conversationID
}

// SetStreaming sets the global streaming flag the UI uses to disable
// input while an exchange is open.
func (s *Store) SetStreaming(streaming bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = streaming
}

// Streaming reports whether an exchange is currently open.
func (s *Store) Streaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

// SetError records a dismissible user-visible error message. An empty
// string clears it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// LastError returns the current user-visible error, empty when none.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// All returns a copy of the conversation list in display order.
func (s *Store) All() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Conversation, len(s.conversations))
	for i, conv := range s.conversations {
		out[i] = copyConversation(conv)
	}
	return out
}

// Get returns a copy of one conversation.
func (s *Store) Get(conversationID string) (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(conversationID)
	if i < 0 {
		return models.Conversation{}, false
	}
	return copyConversation(s.conversations[i]), true
}

// CurrentID returns the selected conversation id, empty when none.
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// Current returns a copy of the selected conversation.
func (s *Store) Current() (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentID == "" {
		return models.Conversation{}, false
	}
	i := s.index(s.currentID)
	if i < 0 {
		return models.Conversation{}, false
	}
	return copyConversation(s.conversations[i]), true
}

// CurrentMessages returns a copy of the selected conversation's messages.
func (s *Store) CurrentMessages() []models.Message {
	conv, ok := s.Current()
	if !ok {
		return nil
	}
	return conv.Messages
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// copyConversation deep-copies the message slice so readers never alias
// the store's backing array.
func copyConversation(conv models.Conversation) models.Conversation {
	msgs := make([]models.Message, len(conv.Messages))
	copy(msgs, conv.Messages)
	conv.Messages = msgs
	return conv
}
