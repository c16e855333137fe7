// Package session owns the lifecycle of one in-flight chat exchange:
// submitting a prompt, folding stream events into the conversation
// store, and cancelling or superseding the exchange.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/diogo/chatterm/internal/api"
	apierrors "github.com/diogo/chatterm/internal/errors"
	"github.com/diogo/chatterm/internal/models"
	"github.com/diogo/chatterm/internal/store"
)

// titleRenameTimeout bounds the best-effort backend rename after an
// exchange completes.
const titleRenameTimeout = 10 * time.Second

// Session drives at most one exchange at a time. Submitting a new
// prompt supersedes the previous exchange: its transport is aborted and
// any of its events still in flight are discarded by token check.
//
// Events must be applied through HandleEvent one at a time, in arrival
// order. The TUI does this from its update loop; CLI streaming mode
// ranges over the event channel.
type Session struct {
	store   *store.Store
	backend api.ChatBackend
	rawLogf func(format string, args ...any)

	mu           sync.Mutex
	token        uint64
	active       bool
	cancel       context.CancelFunc
	convID       string
	accumulated  strings.Builder
	renameOnDone bool
	pendingTitle string
}

// Exchange is the handle returned by Submit. Token identifies the
// exchange; events delivered with a stale token are ignored.
type Exchange struct {
	Token          uint64
	ConversationID string
	Events         <-chan models.StreamEvent
}

// New creates a session bound to a store and backend. logf may be nil.
func New(st *store.Store, backend api.ChatBackend, logf func(format string, args ...any)) *Session {
	return &Session{store: st, backend: backend, rawLogf: logf}
}

func (s *Session) logf(format string, args ...any) {
	if s.rawLogf != nil {
		s.rawLogf(format, args...)
	}
}

// Submit starts a new exchange for the given conversation. An empty
// conversation id targets the current conversation, creating one when
// none is selected. The user message and an empty assistant placeholder
// are appended before the transport opens, so the UI shows both
// immediately. Any prior exchange is superseded first.
func (s *Session) Submit(ctx context.Context, conversationID, text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.logf("session: superseding exchange %d", s.token)
		s.cancel()
		s.active = false
	}
	s.token++
	token := s.token

	convID := conversationID
	if convID == "" {
		convID = s.store.CurrentID()
	}
	fresh := false
	if convID == "" {
		conv := models.NewConversation()
		s.store.Upsert(conv)
		convID = conv.ID
		fresh = true
	}
	s.store.SetCurrent(convID)

	conv, ok := s.store.Get(convID)
	if !ok {
		return nil, apierrors.ErrUnknownConversation
	}
	s.renameOnDone = conv.HasDefaultTitle() || fresh
	s.pendingTitle = models.DeriveTitle(text)

	s.store.AppendMessage(convID, models.NewUserMessage(text))
	s.store.AppendMessage(convID, models.NewAssistantMessage(""))
	s.store.SetStreaming(true)
	s.store.SetError("")

	req := models.ChatRequest{Message: text}
	if !fresh {
		req.ConversationID = convID
	}

	cctx, cancel := context.WithCancel(ctx)
	events, err := s.backend.StreamChat(cctx, req)
	if err != nil {
		cancel()
		s.store.SetStreaming(false)
		s.store.SetError(err.Error())
		return nil, err
	}

	s.active = true
	s.cancel = cancel
	s.convID = convID
	s.accumulated.Reset()

	return &Exchange{Token: token, ConversationID: convID, Events: events}, nil
}

// HandleEvent applies one stream event. Events carrying a stale token
// are discarded; the exchange they belonged to no longer exists.
func (s *Session) HandleEvent(token uint64, ev models.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || token != s.token {
		s.logf("session: discarding event for stale exchange %d", token)
		return
	}

	switch {
	case ev.Err != nil:
		s.active = false
		s.cancel()
		s.store.SetStreaming(false)
		s.store.SetError(ev.Err.Error())

	case ev.Done:
		s.active = false
		s.cancel()
		if ev.ConversationID != "" && ev.ConversationID != s.convID {
			s.store.Rebind(s.convID, ev.ConversationID)
			s.convID = ev.ConversationID
		}
		if ev.Response != "" {
			s.store.ReplaceLastAssistantContent(s.convID, ev.Response)
		}
		s.finishLocked()

	default:
		s.accumulated.WriteString(ev.Delta)
		s.store.ReplaceLastAssistantContent(s.convID, s.accumulated.String())
	}
}

// Finish marks the exchange complete after its event channel closed
// without a completion event. The accumulated text stands as the final
// assistant message.
func (s *Session) Finish(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || token != s.token {
		return
	}
	s.active = false
	s.cancel()
	s.finishLocked()
}

// finishLocked clears the streaming flag and pushes the derived title to
// the backend when the conversation was still untitled at submit time.
// The rename is best effort; failures are logged and the local title
// stands.
func (s *Session) finishLocked() {
	s.store.SetStreaming(false)

	if !s.renameOnDone {
		return
	}
	s.renameOnDone = false

	convID, title := s.convID, s.pendingTitle
	if conv, ok := s.store.Get(convID); ok && conv.HasDefaultTitle() {
		s.store.SetTitle(convID, title)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), titleRenameTimeout)
		defer cancel()
		if err := s.backend.UpdateTitle(ctx, convID, title); err != nil {
			s.logf("session: title sync failed for %s: %v", convID, err)
		}
	}()
}

// Cancel aborts the in-flight exchange, keeping whatever content has
// already accumulated. Safe to call when nothing is streaming.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.active = false
	s.cancel()
	s.token++
	s.store.SetStreaming(false)
	s.logf("session: exchange cancelled, partial content kept")
}

// Active reports whether an exchange is in flight.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Token returns the token of the most recent exchange.
func (s *Session) Token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}
