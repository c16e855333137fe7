package commands

import (
	"strings"
	"testing"

	"github.com/diogo/chatterm/internal/config"
	apierrors "github.com/diogo/chatterm/internal/errors"
	"github.com/diogo/chatterm/internal/models"
)

func TestWantStream(t *testing.T) {
	tests := []struct {
		name      string
		cfgStream bool
		stream    bool
		noStream  bool
		want      bool
	}{
		{"config default on", true, false, false, true},
		{"config default off", false, false, false, false},
		{"stream flag overrides config", false, true, false, true},
		{"no-stream flag overrides config", true, false, true, false},
		{"no-stream wins over stream", true, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streamFlag = tt.stream
			noStreamFlag = tt.noStream
			t.Cleanup(func() {
				streamFlag = false
				noStreamFlag = false
			})

			cfg := config.DefaultConfig()
			cfg.Stream = tt.cfgStream
			if got := wantStream(cfg); got != tt.want {
				t.Errorf("wantStream() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatErrorMessage(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if got := formatErrorMessage(nil, "context"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("includes context and error", func(t *testing.T) {
		err := apierrors.NewStreamError("model overloaded")
		got := formatErrorMessage(err, "Stream failed")
		if !strings.Contains(got, "Stream failed") {
			t.Errorf("missing context in %q", got)
		}
		if !strings.Contains(got, "model overloaded") {
			t.Errorf("missing error text in %q", got)
		}
	})

	t.Run("api error carries status", func(t *testing.T) {
		err := apierrors.NewAPIError(500, "/chat", "boom")
		got := formatErrorMessage(err, "Request failed")
		if !strings.Contains(got, "HTTP Status: 500") {
			t.Errorf("missing status in %q", got)
		}
	})

	t.Run("not found hint", func(t *testing.T) {
		err := apierrors.NewAPIError(404, "/conversations/abc", "not found")
		got := formatErrorMessage(err, "Lookup failed")
		if !strings.Contains(got, "Hint:") {
			t.Errorf("expected a hint in %q", got)
		}
	})
}

func TestConversationFromDetail(t *testing.T) {
	detail := &models.ConversationDetail{
		ConversationID: "conv-1",
		Title:          "Go questions",
		CreatedAt:      "2025-03-15T10:00:00Z",
		UpdatedAt:      "2025-03-15T11:30:00Z",
	}
	detail.Messages = append(detail.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: models.RoleUser, Content: "hi"})
	detail.Messages = append(detail.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: models.RoleAssistant, Content: "hello"})

	conv := conversationFromDetail(detail)

	if conv.ID != "conv-1" {
		t.Errorf("ID = %q, want conv-1", conv.ID)
	}
	if conv.Title != "Go questions" {
		t.Errorf("Title = %q", conv.Title)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if !conv.Messages[0].IsUser() || !conv.Messages[1].IsAssistant() {
		t.Error("message roles not preserved")
	}
	if conv.CreatedAt == 0 || conv.UpdatedAt == 0 {
		t.Error("timestamps should parse to non-zero millis")
	}
	if conv.UpdatedAt <= conv.CreatedAt {
		t.Errorf("UpdatedAt %d should be after CreatedAt %d", conv.UpdatedAt, conv.CreatedAt)
	}
}

func TestConversationFromDetailEmptyTitle(t *testing.T) {
	detail := &models.ConversationDetail{ConversationID: "conv-2"}
	conv := conversationFromDetail(detail)
	if conv.Title != models.DefaultTitle {
		t.Errorf("Title = %q, want default", conv.Title)
	}
}

func TestBackendTimeMillis(t *testing.T) {
	if got := backendTimeMillis("2025-03-15T10:00:00Z"); got == 0 {
		t.Error("valid timestamp should not be 0")
	}
	if got := backendTimeMillis("not a time"); got != 0 {
		t.Errorf("invalid timestamp = %d, want 0", got)
	}
	if got := backendTimeMillis(""); got != 0 {
		t.Errorf("empty timestamp = %d, want 0", got)
	}
}

func TestApplyConfigValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
		check   func(config.Config) bool
	}{
		{"base-url", "base-url", "http://example.com:9000", false,
			func(c config.Config) bool { return c.BaseURL == "http://example.com:9000" }},
		{"base-url trims slash", "base-url", "http://example.com/", false,
			func(c config.Config) bool { return c.BaseURL == "http://example.com" }},
		{"base-url rejects bare host", "base-url", "example.com", true, nil},
		{"timeout", "timeout", "30", false,
			func(c config.Config) bool { return c.TimeoutSeconds == 30 }},
		{"timeout rejects zero", "timeout", "0", true, nil},
		{"timeout rejects text", "timeout", "soon", true, nil},
		{"stream", "stream", "false", false,
			func(c config.Config) bool { return !c.Stream }},
		{"stream rejects junk", "stream", "maybe", true, nil},
		{"verbose", "verbose", "true", false,
			func(c config.Config) bool { return c.Verbose }},
		{"clipboard", "clipboard", "true", false,
			func(c config.Config) bool { return c.CopyToClipboard }},
		{"theme known", "theme", "nord", false,
			func(c config.Config) bool { return c.TUITheme == "nord" }},
		{"theme unknown", "theme", "neon-zebra", true, nil},
		{"markdown style", "markdown-style", "light", false,
			func(c config.Config) bool { return c.Markdown.Style == "light" }},
		{"markdown style accepts json path", "markdown-style", "/tmp/custom.json", false,
			func(c config.Config) bool { return c.Markdown.Style == "/tmp/custom.json" }},
		{"markdown style rejects unknown", "markdown-style", "neon-zebra", true, nil},
		{"unknown key", "favorite-color", "blue", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			err := applyConfigValue(&cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyConfigValue(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("config not updated as expected: %+v", cfg)
			}
		})
	}
}
