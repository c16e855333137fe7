package models

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty falls back to default", "", DefaultTitle},
		{"whitespace falls back to default", "  \n\t ", DefaultTitle},
		{"short text kept", "Hello world", "Hello world"},
		{"exactly max length", strings.Repeat("a", TitleMaxLen), strings.Repeat("a", TitleMaxLen)},
		{"one over max length", strings.Repeat("a", TitleMaxLen+1), strings.Repeat("a", TitleMaxLen) + "..."},
		{"multibyte counted as runes", strings.Repeat("世", 60), strings.Repeat("世", TitleMaxLen) + "..."},
		{"surrounding whitespace trimmed", "  trimmed  ", "trimmed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.text); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNewMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		m := NewUserMessage("x")
		if seen[m.ID] {
			t.Fatalf("duplicate message id %s", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestMessageRoles(t *testing.T) {
	u := NewUserMessage("q")
	a := NewAssistantMessage("r")

	if !u.IsUser() || u.IsAssistant() {
		t.Errorf("user message role mismatch: %+v", u)
	}
	if !a.IsAssistant() || a.IsUser() {
		t.Errorf("assistant message role mismatch: %+v", a)
	}
}

func TestNewConversationDefaults(t *testing.T) {
	c := NewConversation()

	if c.ID == "" {
		t.Error("conversation id must be set")
	}
	if !c.HasDefaultTitle() {
		t.Errorf("new conversation title = %q, want default", c.Title)
	}
	if c.CreatedAt == 0 || c.UpdatedAt == 0 {
		t.Error("timestamps must be set")
	}
	if _, ok := c.LastMessage(); ok {
		t.Error("new conversation should have no messages")
	}
}

func TestGroupByDate(t *testing.T) {
	now := time.Date(2025, time.March, 15, 14, 30, 0, 0, time.Local)
	at := func(d time.Time) int64 { return d.UnixMilli() }

	conversations := []Conversation{
		{ID: "today-morning", UpdatedAt: at(time.Date(2025, time.March, 15, 8, 0, 0, 0, time.Local))},
		{ID: "yesterday", UpdatedAt: at(time.Date(2025, time.March, 14, 23, 0, 0, 0, time.Local))},
		{ID: "five-days", UpdatedAt: at(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.Local))},
		{ID: "twenty-days", UpdatedAt: at(time.Date(2025, time.February, 23, 12, 0, 0, 0, time.Local))},
		{ID: "ancient", UpdatedAt: at(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local))},
		{ID: "today-later", UpdatedAt: at(time.Date(2025, time.March, 15, 13, 0, 0, 0, time.Local))},
	}

	grouped := GroupByDate(conversations, now)

	wantBuckets := map[GroupLabel][]string{
		GroupToday:          {"today-morning", "today-later"},
		GroupYesterday:      {"yesterday"},
		GroupPrevious7Days:  {"five-days"},
		GroupPrevious30Days: {"twenty-days"},
		GroupOlder:          {"ancient"},
	}

	for label, wantIDs := range wantBuckets {
		got := grouped[label]
		if len(got) != len(wantIDs) {
			t.Errorf("%s: got %d conversations, want %d", label, len(got), len(wantIDs))
			continue
		}
		for i, id := range wantIDs {
			if got[i].ID != id {
				t.Errorf("%s[%d] = %s, want %s (input order must be preserved)", label, i, got[i].ID, id)
			}
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, time.March, 15, 14, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"seconds ago", now.Add(-30 * time.Second), "just now"},
		{"minutes ago", now.Add(-5 * time.Minute), "5m ago"},
		{"hours ago", now.Add(-3 * time.Hour), "3h ago"},
		{"days ago", now.Add(-2 * 24 * time.Hour), "2d ago"},
		{"beyond a week", now.Add(-20 * 24 * time.Hour), "Feb 23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRelativeTime(tt.ts.UnixMilli(), now); got != tt.want {
				t.Errorf("FormatRelativeTime = %q, want %q", got, tt.want)
			}
		})
	}
}
