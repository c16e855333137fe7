package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/chatterm/internal/api"
	"github.com/diogo/chatterm/internal/config"
	apierrors "github.com/diogo/chatterm/internal/errors"
	"github.com/diogo/chatterm/internal/models"
	"github.com/diogo/chatterm/internal/render"
	"github.com/diogo/chatterm/internal/session"
	"github.com/diogo/chatterm/internal/store"
)

// One-shot output styling, aligned with the chat TUI palette.
var (
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))

	replyLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7aa2f7")).
			Bold(true)

	replyBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#7aa2f7")).
				Foreground(lipgloss.Color("#c0caf5")).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// newBackendClient builds an API client from the user config.
func newBackendClient(cfg config.Config) (*api.Client, error) {
	opts := []api.ClientOption{
		api.WithTimeout(cfg.Timeout()),
	}
	if cfg.Verbose {
		opts = append(opts, api.WithLogf(verboseLogf))
	}
	return api.NewClient(cfg.BaseURL, opts...)
}

// verboseLogf writes diagnostic lines to stderr.
func verboseLogf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
}

// wantStream resolves the streaming mode from flags and config. The
// --stream and --no-stream flags override the configured default.
func wantStream(cfg config.Config) bool {
	if noStreamFlag {
		return false
	}
	if streamFlag {
		return true
	}
	return cfg.Stream
}

// runQuery executes a single query and outputs the response
// If rawOutput is true, only the raw response text is printed without decoration
func runQuery(prompt string, rawOutput bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	cfg, _ := config.LoadConfig()
	if copyFlag {
		cfg.CopyToClipboard = true
	}

	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Backend: %s\n", cfg.BaseURL)
	}

	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	var text string
	startTime := time.Now()
	if wantStream(cfg) {
		text, err = streamQuery(client, cfg, prompt, rawOutput)
	} else {
		text, err = blockingQuery(client, cfg, prompt, rawOutput)
	}
	requestDuration := time.Since(startTime)
	if err != nil {
		return err
	}

	// Verbose: show request timing
	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
	}

	return writeResponse(text, cfg, rawOutput)
}

// blockingQuery sends the prompt over the non-streaming endpoint and
// returns the complete reply.
func blockingQuery(client *api.Client, cfg config.Config, prompt string, rawOutput bool) (string, error) {
	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Waiting for response")
		spin.start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	resp, err := client.Chat(ctx, models.ChatRequest{
		Message:        prompt,
		ConversationID: conversationFlag,
	})
	if err != nil {
		if !rawOutput {
			spin.fail()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Request failed"))
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	if !rawOutput {
		spin.succeed("Done")
	}
	return resp.Reply, nil
}

// streamQuery drives a streaming exchange through the session layer. In
// raw mode deltas are printed to stdout as they arrive; otherwise a
// spinner runs until the stream ends and the full reply is returned for
// decorated output.
func streamQuery(client *api.Client, cfg config.Config, prompt string, rawOutput bool) (string, error) {
	st := store.New()
	if cfg.Verbose {
		st.Logf = verboseLogf
	}

	var logf func(format string, args ...any)
	if cfg.Verbose {
		logf = verboseLogf
	}
	sess := session.New(st, client, logf)

	// Continuing a server-side conversation needs its history in the
	// local store first.
	if conversationFlag != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
		detail, err := client.GetConversation(ctx, conversationFlag)
		cancel()
		if err != nil {
			if !rawOutput {
				fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Conversation not found"))
			}
			return "", fmt.Errorf("conversation not found: %w", err)
		}
		st.Upsert(conversationFromDetail(detail))
	}

	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Waiting for response")
		spin.start()
	}

	ex, err := sess.Submit(context.Background(), conversationFlag, prompt)
	if err != nil {
		if !rawOutput {
			spin.fail()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Request failed"))
		}
		return "", fmt.Errorf("request failed: %w", err)
	}

	for ev := range ex.Events {
		sess.HandleEvent(ex.Token, ev)
		if rawOutput && ev.Delta != "" {
			fmt.Print(ev.Delta)
		}
	}
	sess.Finish(ex.Token)

	if rawOutput {
		fmt.Println()
	}

	if msg := st.LastError(); msg != "" {
		if !rawOutput {
			spin.fail()
			fmt.Fprintln(os.Stderr, formatErrorMessage(apierrors.NewStreamError(msg), "Stream failed"))
		}
		return "", fmt.Errorf("stream failed: %s", msg)
	}
	if !rawOutput {
		spin.succeed("Done")
	}

	return lastAssistantReply(st), nil
}

// lastAssistantReply returns the content of the newest assistant message
// in the current conversation.
func lastAssistantReply(st *store.Store) string {
	msgs := st.CurrentMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAssistant() {
			return msgs[i].Content
		}
	}
	return ""
}

// conversationFromDetail converts a backend conversation detail to the
// local model.
func conversationFromDetail(detail *models.ConversationDetail) models.Conversation {
	conv := models.Conversation{
		ID:        detail.ConversationID,
		Title:     detail.Title,
		CreatedAt: backendTimeMillis(detail.CreatedAt),
		UpdatedAt: backendTimeMillis(detail.UpdatedAt),
	}
	if conv.Title == "" {
		conv.Title = models.DefaultTitle
	}
	for _, m := range detail.Messages {
		conv.Messages = append(conv.Messages, models.NewMessage(m.Role, m.Content))
	}
	return conv
}

// backendTimeMillis parses an RFC 3339 backend timestamp to epoch
// milliseconds, or 0 if it does not parse.
func backendTimeMillis(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// writeResponse emits the reply text to the requested destination.
func writeResponse(text string, cfg config.Config, rawOutput bool) error {
	// Raw output mode: output only the raw text
	if rawOutput {
		if outputFlag != "" {
			if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}
		// Streaming already printed the deltas live.
		if !wantStream(cfg) {
			fmt.Print(text)
		}
		return nil
	}

	// Decorated output mode (TTY)
	fmt.Fprintln(os.Stderr)

	// Copy to clipboard if enabled in config
	if cfg.CopyToClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(os.Stderr, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	// Output to file if specified
	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(os.Stderr, successStyle.Render(fmt.Sprintf("✓ Response saved to %s", outputFlag)))
		return nil
	}

	// Get terminal width for proper formatting
	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	// Print assistant label (similar to chat TUI)
	label := replyLabelStyle.Render("✦ Assistant")
	fmt.Println(label)

	// Render markdown for terminal output using user config
	renderOpts := render.OptionsFromConfig(cfg.Markdown, contentWidth)
	rendered, err := render.Markdown(text, renderOpts)
	if err != nil {
		rendered = text
	}
	// Trim trailing newlines from glamour
	rendered = strings.TrimRight(rendered, "\n")

	// Wrap content in assistant bubble style
	bubble := replyBubbleStyle.Width(bubbleWidth).Render(rendered)
	fmt.Println(bubble)

	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the backend is running and reachable"))
	case apierrors.GetHTTPStatus(err) == 404:
		sb.WriteString(dimStyle.Render("\n  Hint: The conversation may have been deleted"))
	}

	return sb.String()
}
