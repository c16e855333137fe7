package api

import (
	"context"
	"sync"
	"time"

	"github.com/diogo/chatterm/internal/models"
)

// MockClient is a scripted ChatBackend for tests. Populate the Val and
// Err fields for whichever calls the test exercises; the Called flags
// record which methods ran.
type MockClient struct {
	mu sync.Mutex

	ChatVal *models.ChatResponse
	ChatErr error

	// StreamEvents is replayed in order on StreamChat. StreamDelay, when
	// set, spaces the events out so tests can interleave cancellation.
	StreamEvents []models.StreamEvent
	StreamErr    error
	StreamDelay  time.Duration

	ListVal []models.ConversationSummary
	ListErr error

	GetVal *models.ConversationDetail
	GetErr error

	DeleteErr error
	UpdateErr error

	HealthVal *models.HealthResponse
	HealthErr error

	ChatCalled   bool
	StreamCalled bool
	ListCalled   bool
	GetCalled    bool
	DeleteCalled bool
	UpdateCalled bool
	HealthCalled bool

	LastChatRequest   models.ChatRequest
	LastStreamRequest models.ChatRequest
	LastID            string
	LastTitle         string
}

var _ ChatBackend = (*MockClient)(nil)

func (m *MockClient) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalled = true
	m.LastChatRequest = req
	m.mu.Unlock()
	if m.ChatErr != nil {
		return nil, m.ChatErr
	}
	return m.ChatVal, nil
}

func (m *MockClient) StreamChat(ctx context.Context, req models.ChatRequest) (<-chan models.StreamEvent, error) {
	m.mu.Lock()
	m.StreamCalled = true
	m.LastStreamRequest = req
	events := make([]models.StreamEvent, len(m.StreamEvents))
	copy(events, m.StreamEvents)
	delay := m.StreamDelay
	m.mu.Unlock()

	if m.StreamErr != nil {
		return nil, m.StreamErr
	}

	out := make(chan models.StreamEvent, len(events))
	go func() {
		defer close(out)
		for _, ev := range events {
			if delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()
	return out, nil
}

func (m *MockClient) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	m.mu.Lock()
	m.ListCalled = true
	m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListVal, nil
}

func (m *MockClient) GetConversation(ctx context.Context, id string) (*models.ConversationDetail, error) {
	m.mu.Lock()
	m.GetCalled = true
	m.LastID = id
	m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.GetVal, nil
}

func (m *MockClient) DeleteConversation(ctx context.Context, id string) error {
	m.mu.Lock()
	m.DeleteCalled = true
	m.LastID = id
	m.mu.Unlock()
	return m.DeleteErr
}

func (m *MockClient) UpdateTitle(ctx context.Context, id, title string) error {
	m.mu.Lock()
	m.UpdateCalled = true
	m.LastID = id
	m.LastTitle = title
	m.mu.Unlock()
	return m.UpdateErr
}

// TitleUpdated reports whether UpdateTitle ran, with the id and title it
// received. Safe to poll from tests while a rename goroutine is in
// flight.
func (m *MockClient) TitleUpdated() (id, title string, called bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastID, m.LastTitle, m.UpdateCalled
}

func (m *MockClient) Health(ctx context.Context) (*models.HealthResponse, error) {
	m.mu.Lock()
	m.HealthCalled = true
	m.mu.Unlock()
	if m.HealthErr != nil {
		return nil, m.HealthErr
	}
	return m.HealthVal, nil
}
