package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/chatterm/internal/errors"
	"github.com/diogo/chatterm/internal/models"
)

// ListConversations fetches every stored conversation summary, newest
// first as ordered by the backend.
func (c *Client) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	body, err := c.doJSON(ctx, http.MethodGet, models.PathConversations, nil, "list conversations")
	if err != nil {
		return nil, err
	}

	var out []models.ConversationSummary
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apierrors.NewParseError("malformed conversation list", string(body))
	}
	return out, nil
}

// GetConversation fetches one conversation with its full message log.
func (c *Client) GetConversation(ctx context.Context, id string) (*models.ConversationDetail, error) {
	body, err := c.doJSON(ctx, http.MethodGet, models.PathConversations+"/"+id, nil, "get conversation")
	if err != nil {
		return nil, err
	}

	var out models.ConversationDetail
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apierrors.NewParseError("malformed conversation detail", string(body))
	}
	return &out, nil
}

// DeleteConversation removes a conversation from the backend.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, models.PathConversations+"/"+id, nil, "delete conversation")
	return err
}

// UpdateTitle renames a conversation on the backend.
func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	payload := map[string]string{"title": title}
	_, err := c.doJSON(ctx, http.MethodPatch, models.PathConversations+"/"+id+"/title", payload, "update title")
	return err
}

// Health probes the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	body, err := c.doJSON(ctx, http.MethodGet, models.PathHealth, nil, "health")
	if err != nil {
		return nil, err
	}

	var out models.HealthResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apierrors.NewParseError("malformed health response", string(body))
	}
	return &out, nil
}

// doJSON performs a JSON request and returns the raw response bytes,
// mapping non-2xx responses to APIError and connection failures to
// NetworkError.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, op string) ([]byte, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := c.endpoint(path)
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierrors.NewNetworkError(op, endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewNetworkError(op, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierrors.NewAPIError(resp.StatusCode, endpoint, errorDetail(body))
	}
	return body, nil
}
