package api

import (
	"context"
	"encoding/json"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/chatterm/internal/errors"
	"github.com/diogo/chatterm/internal/models"
)

// Chat performs a non-streaming exchange against POST /chat. The backend
// replies with the full assistant message once generation finishes.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	body, err := c.doJSON(ctx, http.MethodPost, models.PathChat, req, "chat")
	if err != nil {
		return nil, err
	}

	var out models.ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apierrors.NewParseError("malformed chat response", string(body))
	}
	return &out, nil
}

// errorDetail extracts the {"detail": ...} message the backend attaches
// to error responses, falling back to a truncated raw body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		return payload.Detail
	}
	const maxLen = 512
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	return string(body)
}
