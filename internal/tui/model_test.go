package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/chatterm/internal/api"
	"github.com/diogo/chatterm/internal/config"
	"github.com/diogo/chatterm/internal/models"
	"github.com/diogo/chatterm/internal/session"
	"github.com/diogo/chatterm/internal/store"
)

func newTestModel(mock *api.MockClient) (Model, *store.Store) {
	st := store.New()
	sess := session.New(st, mock, nil)
	m := NewChatModel(mock, st, sess, config.DefaultConfig())

	// Simulate the initial window size message so the viewport exists.
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), st
}

func TestChatModelInitialState(t *testing.T) {
	m := NewChatModel(&api.MockClient{}, store.New(), nil, config.DefaultConfig())

	if m.ready {
		t.Error("model should not be ready before the first window size message")
	}
	if !m.sidebarOpen {
		t.Error("sidebar should start open")
	}
	if view := m.View(); view == "" {
		t.Error("View() should render an initializing message before ready")
	}
}

func TestChatModelBecomesReadyOnWindowSize(t *testing.T) {
	m, _ := newTestModel(&api.MockClient{})

	if !m.ready {
		t.Error("model should be ready after a window size message")
	}
	if view := m.View(); view == "" {
		t.Error("View() returned empty output")
	}
}

func TestSubmitAppendsMessagesAndTracksExchange(t *testing.T) {
	mock := &api.MockClient{StreamEvents: []models.StreamEvent{
		{Delta: "Hel"},
		{Done: true, Response: "Hello"},
	}}
	m, st := newTestModel(mock)

	m.textarea.SetValue("hi there")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if cmd == nil {
		t.Fatal("submit should return a command to pull stream events")
	}
	if m.exchange == nil {
		t.Fatal("submit should record the in-flight exchange")
	}
	msgs := st.CurrentMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected user message and placeholder, got %d messages", len(msgs))
	}
	if !st.Streaming() {
		t.Error("streaming flag should be set")
	}
}

func TestStreamEventsFlowThroughUpdate(t *testing.T) {
	mock := &api.MockClient{StreamEvents: []models.StreamEvent{
		{Delta: "Hel"},
		{Delta: "lo"},
		{Done: true, Response: "Hello there"},
	}}
	m, st := newTestModel(mock)

	m.textarea.SetValue("hi")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	ex := m.exchange

	// Drive the wait-for-event loop by hand, one event at a time.
	for {
		msg := waitForEvent(ex)()
		updated, _ = m.Update(msg)
		m = updated.(Model)
		if _, closed := msg.(streamClosedMsg); closed {
			break
		}
		if m.exchange == nil {
			break
		}
	}

	msgs := st.CurrentMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "Hello there" {
		t.Errorf("assistant content = %q, want authoritative response", msgs[1].Content)
	}
	if st.Streaming() {
		t.Error("streaming flag should clear after done")
	}
	if m.exchange != nil {
		t.Error("exchange should be cleared after done")
	}
}

func TestEscCancelsStreaming(t *testing.T) {
	mock := &api.MockClient{
		StreamEvents: []models.StreamEvent{{Delta: "p"}},
		StreamDelay:  time.Hour,
	}
	m, st := newTestModel(mock)

	m.textarea.SetValue("hi")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if st.Streaming() {
		t.Error("esc during streaming should cancel the exchange")
	}
	if m.exchange != nil {
		t.Error("exchange should be cleared on cancel")
	}
}

func TestEscDismissesError(t *testing.T) {
	m, st := newTestModel(&api.MockClient{})
	st.SetError("backend unreachable")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if cmd != nil {
		t.Error("dismissing an error should not quit")
	}
	if st.LastError() != "" {
		t.Errorf("error should be cleared, got %q", st.LastError())
	}
}

func TestConversationsLoadedPopulatesSidebar(t *testing.T) {
	m, st := newTestModel(&api.MockClient{})

	now := time.Now().Format(time.RFC3339)
	updated, _ := m.Update(conversationsLoadedMsg{summaries: []models.ConversationSummary{
		{ConversationID: "conv-1", Title: "First chat", UpdatedAt: now},
		{ConversationID: "conv-2", Title: "Second chat", UpdatedAt: now},
	}})
	m = updated.(Model)

	if st.Len() != 2 {
		t.Fatalf("store should hold 2 conversations, got %d", st.Len())
	}
	if len(m.sidebarRows) != 3 {
		t.Fatalf("expected group header plus 2 rows, got %d", len(m.sidebarRows))
	}
	if !m.sidebarRows[0].header || m.sidebarRows[0].label != string(models.GroupToday) {
		t.Errorf("first row should be the Today header, got %+v", m.sidebarRows[0])
	}
}

func TestSidebarCursorSkipsHeaders(t *testing.T) {
	m, _ := newTestModel(&api.MockClient{})
	m.sidebarRows = []sidebarRow{
		{header: true, label: "Today"},
		{label: "one", convID: "conv-1"},
		{header: true, label: "Yesterday"},
		{label: "two", convID: "conv-2"},
	}
	m.sidebarCursor = 1

	m.moveSidebarCursor(1)
	if m.sidebarCursor != 3 {
		t.Errorf("cursor = %d, want 3 (headers skipped)", m.sidebarCursor)
	}

	m.moveSidebarCursor(-1)
	if m.sidebarCursor != 1 {
		t.Errorf("cursor = %d, want 1", m.sidebarCursor)
	}

	// At the edges the cursor stays put.
	m.moveSidebarCursor(-1)
	if m.sidebarCursor != 1 {
		t.Errorf("cursor moved past the first entry: %d", m.sidebarCursor)
	}
}

func TestParseBackendTime(t *testing.T) {
	if got := parseBackendTime(""); got != 0 {
		t.Errorf("empty timestamp should parse to 0, got %d", got)
	}
	if got := parseBackendTime("not a time"); got != 0 {
		t.Errorf("garbage timestamp should parse to 0, got %d", got)
	}

	want := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	got := parseBackendTime(want.Format(time.RFC3339))
	if got != want.UnixMilli() {
		t.Errorf("parseBackendTime = %d, want %d", got, want.UnixMilli())
	}
}

func TestConversationReloadReplacesMessages(t *testing.T) {
	m, st := newTestModel(&api.MockClient{})
	st.Upsert(models.Conversation{
		ID:       "conv-1",
		Title:    "Go questions",
		Messages: []models.Message{models.NewUserMessage("stale local copy")},
	})

	detail := &models.ConversationDetail{
		ConversationID: "conv-1",
		Title:          "Go questions",
	}
	detail.Messages = append(detail.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: models.RoleUser, Content: "question"})
	detail.Messages = append(detail.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: models.RoleAssistant, Content: "answer"})

	updated, _ := m.Update(conversationLoadedMsg{detail: detail})
	_ = updated.(Model)

	got, ok := st.Get("conv-1")
	if !ok {
		t.Fatal("conversation disappeared on reload")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected fetched history to replace local messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Content != "question" || got.Messages[1].Content != "answer" {
		t.Errorf("unexpected messages after reload: %+v", got.Messages)
	}
	if got.Title != "Go questions" {
		t.Errorf("title = %q, want backend title", got.Title)
	}
}

func TestLoadErrorFromCancellationIsNotShown(t *testing.T) {
	m, st := newTestModel(&api.MockClient{})

	updated, _ := m.Update(conversationsLoadedMsg{err: context.Canceled})
	m = updated.(Model)

	if st.LastError() != "" {
		t.Errorf("cancellation surfaced as error: %q", st.LastError())
	}

	updated, _ = m.Update(conversationLoadedMsg{err: context.Canceled})
	_ = updated.(Model)

	if st.LastError() != "" {
		t.Errorf("cancellation surfaced as error: %q", st.LastError())
	}
}

func TestDetailToConversation(t *testing.T) {
	detail := &models.ConversationDetail{
		ConversationID: "conv-5",
		Title:          "Loaded chat",
	}
	detail.Messages = append(detail.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: models.RoleUser, Content: "question"})
	detail.Messages = append(detail.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: models.RoleAssistant, Content: "answer"})

	conv := detailToConversation(detail)

	if conv.ID != "conv-5" || conv.Title != "Loaded chat" {
		t.Errorf("unexpected conversation: %+v", conv)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if !conv.Messages[0].IsUser() || !conv.Messages[1].IsAssistant() {
		t.Errorf("roles not preserved: %+v", conv.Messages)
	}
}
