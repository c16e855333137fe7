package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/chatterm/internal/errors"
	"github.com/diogo/chatterm/internal/models"
)

// ssePrefix frames each event on the wire: "data: {json}\n\n".
const ssePrefix = "data: "

// StreamChat opens a streaming exchange against POST /chat/stream and
// returns a channel of decoded events. Events are delivered in wire
// order, one at a time; the channel closes after the completion event,
// after end-of-stream, or after an error event. Cancelling ctx aborts
// the transport; the pending read fails and the channel closes without a
// completion event.
func (c *Client) StreamChat(ctx context.Context, req models.ChatRequest) (<-chan models.StreamEvent, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.endpoint(models.PathChatStream)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierrors.NewNetworkError("stream chat", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, apierrors.NewAPIError(resp.StatusCode, endpoint, "stream request failed")
		}
		return nil, apierrors.NewAPIError(resp.StatusCode, endpoint, errorDetail(body))
	}

	events := make(chan models.StreamEvent, 64)
	go c.readStream(ctx, resp.Body, events)
	return events, nil
}

// readStream decodes SSE frames into events until the stream terminates.
// A frame that fails to parse is dropped and logged; one bad fragment
// must not abort the whole exchange.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, events chan<- models.StreamEvent) {
	defer close(events)
	defer func() {
		_ = body.Close()
	}()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		data := line[len(ssePrefix):]

		ev, ok := parseStreamEvent(data)
		if !ok {
			if c.logf != nil {
				c.logf("api: dropping malformed stream event: %.120s", data)
			}
			continue
		}

		events <- ev
		if ev.Done || ev.Err != nil {
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		events <- models.StreamEvent{Err: apierrors.NewNetworkError("stream read", "", err)}
	}
}

// parseStreamEvent decodes one SSE data payload. The backend sends
// {"delta": string}, {"done": true, "response": string,
// "conversation_id": string}, or {"error": string, "done": true}.
func parseStreamEvent(data string) (models.StreamEvent, bool) {
	if !gjson.Valid(data) {
		return models.StreamEvent{}, false
	}
	parsed := gjson.Parse(data)
	if parsed.Type != gjson.JSON {
		return models.StreamEvent{}, false
	}

	if errField := parsed.Get("error"); errField.Exists() {
		return models.StreamEvent{
			Done: true,
			Err:  apierrors.NewStreamError(errField.String()),
		}, true
	}

	if parsed.Get("done").Bool() {
		return models.StreamEvent{
			Done:           true,
			Response:       parsed.Get("response").String(),
			ConversationID: parsed.Get("conversation_id").String(),
		}, true
	}

	if delta := parsed.Get("delta"); delta.Exists() {
		return models.StreamEvent{Delta: delta.String()}, true
	}

	return models.StreamEvent{}, false
}
