// Package export renders backend conversations to portable formats.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diogo/chatterm/internal/models"
)

// Format represents the format for exporting conversations
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (markdown or json)", name)
	}
}

// Conversation renders a conversation in the requested format.
func Conversation(detail *models.ConversationDetail, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return toMarkdown(detail), nil
	case FormatJSON:
		return toJSON(detail)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

func toMarkdown(conv *models.ConversationDetail) string {
	var sb strings.Builder

	// Header
	title := conv.Title
	if title == "" {
		title = models.DefaultTitle
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	// Metadata
	sb.WriteString("**Conversation:** ")
	sb.WriteString(conv.ConversationID)
	sb.WriteString("\n")
	if conv.CreatedAt != "" {
		sb.WriteString("**Created:** ")
		sb.WriteString(conv.CreatedAt)
		sb.WriteString("\n")
	}
	if conv.UpdatedAt != "" {
		sb.WriteString("**Updated:** ")
		sb.WriteString(conv.UpdatedAt)
		sb.WriteString("\n")
	}
	sb.WriteString("**Messages:** ")
	sb.WriteString(fmt.Sprintf("%d", len(conv.Messages)))
	sb.WriteString("\n\n---\n\n")

	// Messages
	for i, msg := range conv.Messages {
		role := "User"
		if msg.Role == models.RoleAssistant {
			role = "Assistant"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// exportedConversation is the stable JSON export shape. It mirrors the
// backend detail but drops empty fields.
type exportedConversation struct {
	ConversationID string            `json:"conversation_id"`
	Title          string            `json:"title"`
	CreatedAt      string            `json:"created_at,omitempty"`
	UpdatedAt      string            `json:"updated_at,omitempty"`
	Messages       []exportedMessage `json:"messages"`
}

type exportedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toJSON(conv *models.ConversationDetail) (string, error) {
	out := exportedConversation{
		ConversationID: conv.ConversationID,
		Title:          conv.Title,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
		Messages:       make([]exportedMessage, 0, len(conv.Messages)),
	}
	for _, msg := range conv.Messages {
		out.Messages = append(out.Messages, exportedMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return string(data), nil
}
