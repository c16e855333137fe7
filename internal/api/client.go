// Package api implements the HTTP client for the chat backend: the
// streamed and non-streamed chat endpoints plus the conversation CRUD
// calls the UI delegates to.
package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/chatterm/internal/models"
)

// Client talks to the chat backend over HTTP.
type Client struct {
	httpClient tls_client.HttpClient
	baseURL    string
	logf       func(format string, args ...any)

	mu     sync.RWMutex
	closed bool
}

// ChatBackend is the surface the TUI and session layer depend on. The
// concrete Client implements it; tests use MockClient.
type ChatBackend interface {
	// Chat performs a non-streaming exchange.
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	// StreamChat opens a streaming exchange. Events arrive on the
	// returned channel in wire order; the channel closes after the
	// completion event, end-of-stream, or an error event. Cancelling ctx
	// aborts the transport.
	StreamChat(ctx context.Context, req models.ChatRequest) (<-chan models.StreamEvent, error)

	ListConversations(ctx context.Context) ([]models.ConversationSummary, error)
	GetConversation(ctx context.Context, id string) (*models.ConversationDetail, error)
	DeleteConversation(ctx context.Context, id string) error
	UpdateTitle(ctx context.Context, id, title string) error
	Health(ctx context.Context) (*models.HealthResponse, error)
}

var _ ChatBackend = (*Client)(nil)

// ClientOption is a function that configures the client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	timeout time.Duration
	logf    func(format string, args ...any)
}

// WithTimeout sets the connect/request timeout. Once a stream is open
// there is no overall cap; an exchange runs until completion, error, or
// cancellation.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithLogf sets a diagnostics sink for dropped stream events.
func WithLogf(logf func(format string, args ...any)) ClientOption {
	return func(o *clientOptions) {
		o.logf = logf
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	options := clientOptions{timeout: 120 * time.Second}
	for _, opt := range opts {
		opt(&options)
	}

	httpOptions := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(options.timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), httpOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logf:       options.logf,
	}, nil
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close shuts down the client. Further calls fail.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}
