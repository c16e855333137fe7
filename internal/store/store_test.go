package store

import (
	"strings"
	"testing"

	"github.com/diogo/chatterm/internal/models"
)

func seedConversation(t *testing.T, s *Store, title string, msgs ...models.Message) models.Conversation {
	t.Helper()
	conv := models.NewConversation()
	if title != "" {
		conv.Title = title
	}
	conv.Messages = msgs
	s.Upsert(conv)
	return conv
}

func TestUpsertInsertsAtFrontAndSelects(t *testing.T) {
	s := New()

	first := seedConversation(t, s, "first")
	second := seedConversation(t, s, "second")

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(all))
	}
	if all[0].ID != second.ID {
		t.Errorf("newest conversation should be first, got %s", all[0].ID)
	}
	if s.CurrentID() != second.ID {
		t.Errorf("current = %s, want most recently upserted", s.CurrentID())
	}
	_ = first
}

func TestUpsertReplacesInPlace(t *testing.T) {
	s := New()
	conv := seedConversation(t, s, "original")
	seedConversation(t, s, "other")

	conv.Title = "renamed"
	s.Upsert(conv)

	if s.Len() != 2 {
		t.Fatalf("replace must not grow the list, len = %d", s.Len())
	}
	got, _ := s.Get(conv.ID)
	if got.Title != "renamed" {
		t.Errorf("title = %q, want replaced value", got.Title)
	}
}

func TestAppendMessageDerivesTitleFromFirstUserMessage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short message", "How do goroutines work?", "How do goroutines work?"},
		{"exactly fifty runes", strings.Repeat("x", 50), strings.Repeat("x", 50)},
		{"over fifty runes", strings.Repeat("x", 51), strings.Repeat("x", 50) + "..."},
		{"multibyte runes", strings.Repeat("é", 60), strings.Repeat("é", 50) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			conv := seedConversation(t, s, "")

			s.AppendMessage(conv.ID, models.NewUserMessage(tt.content))

			got, _ := s.Get(conv.ID)
			if got.Title != tt.want {
				t.Errorf("title = %q, want %q", got.Title, tt.want)
			}
		})
	}
}

func TestAppendMessageKeepsTitleForLaterMessages(t *testing.T) {
	s := New()
	conv := seedConversation(t, s, "", models.NewUserMessage("first"), models.NewAssistantMessage("reply"))
	conv2, _ := s.Get(conv.ID)
	titleBefore := conv2.Title

	s.AppendMessage(conv.ID, models.NewUserMessage("a much later question that should not become the title"))

	got, _ := s.Get(conv.ID)
	if got.Title != titleBefore {
		t.Errorf("title changed to %q after a later message", got.Title)
	}
}

func TestAppendMessageUnknownConversationIsLoggedNoOp(t *testing.T) {
	s := New()
	var logged int
	s.Logf = func(format string, args ...any) { logged++ }
	seedConversation(t, s, "only")

	s.AppendMessage("conv-missing", models.NewUserMessage("hello"))

	if s.Len() != 1 {
		t.Errorf("unknown-id append must not create conversations")
	}
	if logged == 0 {
		t.Error("unknown-id append should be logged")
	}
}

func TestReplaceLastAssistantContent(t *testing.T) {
	s := New()
	conv := seedConversation(t, s, "chat",
		models.NewUserMessage("question"),
		models.NewAssistantMessage("old"),
	)

	s.ReplaceLastAssistantContent(conv.ID, "new content")
	got, _ := s.Get(conv.ID)
	if got.Messages[1].Content != "new content" {
		t.Errorf("content = %q, want replaced", got.Messages[1].Content)
	}

	// Replaying the same replacement is harmless.
	s.ReplaceLastAssistantContent(conv.ID, "new content")
	got, _ = s.Get(conv.ID)
	if got.Messages[1].Content != "new content" {
		t.Errorf("idempotent replace broke content: %q", got.Messages[1].Content)
	}
}

func TestReplaceLastAssistantContentGuards(t *testing.T) {
	s := New()
	var logged int
	s.Logf = func(format string, args ...any) { logged++ }

	// Unknown conversation.
	s.ReplaceLastAssistantContent("conv-missing", "x")
	if logged == 0 {
		t.Error("unknown-id replace should be logged")
	}

	// Last message is from the user.
	conv := seedConversation(t, s, "chat", models.NewUserMessage("question"))
	s.ReplaceLastAssistantContent(conv.ID, "x")
	got, _ := s.Get(conv.ID)
	if got.Messages[0].Content != "question" {
		t.Errorf("user message overwritten: %q", got.Messages[0].Content)
	}

	// No messages at all.
	empty := seedConversation(t, s, "empty")
	s.ReplaceLastAssistantContent(empty.ID, "x")
	got, _ = s.Get(empty.ID)
	if len(got.Messages) != 0 {
		t.Errorf("replace on empty conversation grew messages: %d", len(got.Messages))
	}
}

func TestSetTitleDoesNotBumpUpdatedAt(t *testing.T) {
	s := New()
	conv := seedConversation(t, s, "before")
	got, _ := s.Get(conv.ID)
	updatedBefore := got.UpdatedAt

	s.SetTitle(conv.ID, "after")

	got, _ = s.Get(conv.ID)
	if got.Title != "after" {
		t.Errorf("title = %q, want %q", got.Title, "after")
	}
	if got.UpdatedAt != updatedBefore {
		t.Error("SetTitle must not bump UpdatedAt")
	}
}

func TestRemoveClearsCurrent(t *testing.T) {
	s := New()
	keep := seedConversation(t, s, "keep")
	gone := seedConversation(t, s, "gone")
	s.SetCurrent(gone.ID)

	s.Remove(gone.ID)

	if s.CurrentID() != "" {
		t.Errorf("current = %q, want cleared after removing current", s.CurrentID())
	}
	if _, ok := s.Get(gone.ID); ok {
		t.Error("removed conversation still present")
	}
	if _, ok := s.Get(keep.ID); !ok {
		t.Error("unrelated conversation was removed")
	}
}

func TestRemoveOtherConversationKeepsCurrent(t *testing.T) {
	s := New()
	keep := seedConversation(t, s, "keep")
	gone := seedConversation(t, s, "gone")
	s.SetCurrent(keep.ID)

	s.Remove(gone.ID)

	if s.CurrentID() != keep.ID {
		t.Errorf("current = %q, want untouched", s.CurrentID())
	}
}

func TestSetCurrentUnknownIsLoggedNoOp(t *testing.T) {
	s := New()
	var logged int
	s.Logf = func(format string, args ...any) { logged++ }
	conv := seedConversation(t, s, "only")

	s.SetCurrent("conv-missing")

	if s.CurrentID() != conv.ID {
		t.Errorf("current = %q, want unchanged", s.CurrentID())
	}
	if logged == 0 {
		t.Error("unknown-id select should be logged")
	}

	s.SetCurrent("")
	if s.CurrentID() != "" {
		t.Error("empty id should clear the selection")
	}
}

func TestRebind(t *testing.T) {
	s := New()
	conv := seedConversation(t, s, "chat")
	s.SetCurrent(conv.ID)

	s.Rebind(conv.ID, "conv-backend-1")

	if _, ok := s.Get(conv.ID); ok {
		t.Error("old id still resolves after rebind")
	}
	if _, ok := s.Get("conv-backend-1"); !ok {
		t.Error("new id does not resolve after rebind")
	}
	if s.CurrentID() != "conv-backend-1" {
		t.Errorf("current = %q, want to follow the rename", s.CurrentID())
	}
}

func TestSetAllPreservesCurrentWhenStillPresent(t *testing.T) {
	s := New()
	conv := seedConversation(t, s, "one")
	s.SetCurrent(conv.ID)

	s.SetAll([]models.Conversation{conv, {ID: "conv-x", Title: "two"}})
	if s.CurrentID() != conv.ID {
		t.Errorf("current = %q, want preserved", s.CurrentID())
	}

	s.SetAll([]models.Conversation{{ID: "conv-y", Title: "three"}})
	if s.CurrentID() != "" {
		t.Errorf("current = %q, want cleared when gone from new set", s.CurrentID())
	}
}

func TestReadersReturnCopies(t *testing.T) {
	s := New()
	conv := seedConversation(t, s, "chat", models.NewUserMessage("question"))

	got, _ := s.Get(conv.ID)
	got.Messages[0].Content = "mutated"
	got.Title = "mutated"

	fresh, _ := s.Get(conv.ID)
	if fresh.Messages[0].Content != "question" || fresh.Title != "chat" {
		t.Error("reader returned shared state, internal data was mutated")
	}

	all := s.All()
	all[0].Messages[0].Content = "mutated again"

	fresh, _ = s.Get(conv.ID)
	if fresh.Messages[0].Content != "question" {
		t.Error("All returned messages aliasing internal data")
	}
}

func TestClearMessages(t *testing.T) {
	s := New()
	conv := seedConversation(t, s, "chat",
		models.NewUserMessage("first"),
		models.NewAssistantMessage("reply"))

	s.ClearMessages(conv.ID)

	got, _ := s.Get(conv.ID)
	if len(got.Messages) != 0 {
		t.Fatalf("expected no messages after clear, got %d", len(got.Messages))
	}
	if got.Title != "chat" {
		t.Errorf("title should survive a clear, got %q", got.Title)
	}

	// Repopulate from a fresh history fetch
	s.AppendMessage(conv.ID, models.NewUserMessage("first"))
	s.AppendMessage(conv.ID, models.NewAssistantMessage("reply"))
	s.AppendMessage(conv.ID, models.NewUserMessage("second"))

	got, _ = s.Get(conv.ID)
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages after repopulate, got %d", len(got.Messages))
	}
	if got.Messages[2].Content != "second" {
		t.Errorf("messages out of order after repopulate: %q", got.Messages[2].Content)
	}
}

func TestClearMessagesUnknownIDIsLoggedNoOp(t *testing.T) {
	s := New()
	var logged int
	s.Logf = func(format string, args ...any) { logged++ }
	seedConversation(t, s, "chat", models.NewUserMessage("question"))

	s.ClearMessages("no-such-id")

	if logged != 1 {
		t.Errorf("expected 1 log line, got %d", logged)
	}
	if s.Len() != 1 {
		t.Error("unrelated conversation should be untouched")
	}
	got := s.All()[0]
	if len(got.Messages) != 1 {
		t.Error("messages of other conversations should be untouched")
	}
}

func TestStreamingAndErrorFlags(t *testing.T) {
	s := New()

	s.SetStreaming(true)
	if !s.Streaming() {
		t.Error("streaming flag not set")
	}
	s.SetStreaming(false)
	if s.Streaming() {
		t.Error("streaming flag not cleared")
	}

	s.SetError("boom")
	if s.LastError() != "boom" {
		t.Errorf("last error = %q", s.LastError())
	}
	s.SetError("")
	if s.LastError() != "" {
		t.Error("error not dismissed")
	}
}
