package models

// Backend endpoint paths, relative to the configured base URL.
const (
	PathChat          = "/chat"
	PathChatStream    = "/chat/stream"
	PathConversations = "/conversations"
	PathHealth        = "/healthz"
)

// ChatRequest is the body for both the streaming and non-streaming chat
// endpoints. ConversationID may be empty; the backend then creates one.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is the non-streaming chat reply.
type ChatResponse struct {
	ConversationID string         `json:"conversation_id"`
	Reply          string         `json:"reply"`
	Usage          map[string]any `json:"usage,omitempty"`
}

// StreamEvent is one decoded event from the streaming chat endpoint.
// Exactly one of the following holds:
//   - a delta event: Done is false and Delta carries a text fragment
//   - a completion event: Done is true and Response carries the
//     authoritative full text
//   - a backend error event: Done is true and Err is non-nil
//
// Transport failures are also surfaced as an Err event so consumers see a
// single ordered sequence.
type StreamEvent struct {
	Delta          string
	Done           bool
	Response       string
	ConversationID string
	Err            error
}

// ConversationSummary is one entry of the backend conversation list.
type ConversationSummary struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	MessageCount   int    `json:"message_count"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// ConversationDetail is a conversation with its full message history as
// returned by the backend.
type ConversationDetail struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	Messages       []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// HealthResponse is the backend health check reply.
type HealthResponse struct {
	Status        string `json:"status"`
	Environment   string `json:"environment"`
	Model         string `json:"model"`
	MemoryBackend string `json:"memory_backend"`
}
