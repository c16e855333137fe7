package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatterm/internal/api"
	"github.com/diogo/chatterm/internal/config"
	apierrors "github.com/diogo/chatterm/internal/errors"
	"github.com/diogo/chatterm/internal/models"
	"github.com/diogo/chatterm/internal/render"
	"github.com/diogo/chatterm/internal/session"
	"github.com/diogo/chatterm/internal/store"
)

const sidebarWidth = 32

// Message types for the TUI
type (
	conversationsLoadedMsg struct {
		summaries []models.ConversationSummary
		err       error
	}
	conversationLoadedMsg struct {
		detail *models.ConversationDetail
		err    error
	}
	streamEventMsg struct {
		token uint64
		ev    models.StreamEvent
	}
	streamClosedMsg struct {
		token uint64
	}
	clearFeedbackMsg struct{}
)

// sidebarRow is one line of the flattened sidebar: either a date group
// header or a conversation entry.
type sidebarRow struct {
	header bool
	label  string
	convID string
}

// Model represents the chat TUI state
type Model struct {
	backend api.ChatBackend
	store   *store.Store
	session *session.Session
	cfg     config.Config

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// In-flight exchange, nil between exchanges
	exchange *session.Exchange

	// Sidebar state
	sidebarOpen    bool
	sidebarFocused bool
	sidebarRows    []sidebarRow
	sidebarCursor  int

	// State
	loadingList bool
	feedback    string
	ready       bool

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model.
func NewChatModel(backend api.ChatBackend, st *store.Store, sess *session.Session, cfg config.Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		backend:     backend,
		store:       st,
		session:     sess,
		cfg:         cfg,
		textarea:    ta,
		spinner:     s,
		sidebarOpen: true,
		loadingList: true,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.loadConversations(),
	)
}

// loadConversations returns a command that fetches the conversation
// list from the backend.
func (m Model) loadConversations() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout())
		defer cancel()
		summaries, err := m.backend.ListConversations(ctx)
		return conversationsLoadedMsg{summaries: summaries, err: err}
	}
}

// loadConversation returns a command that fetches one conversation's
// full history.
func (m Model) loadConversation(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout())
		defer cancel()
		detail, err := m.backend.GetConversation(ctx, id)
		return conversationLoadedMsg{detail: detail, err: err}
	}
}

// waitForEvent pulls the next event off the exchange channel. One event
// is fully applied before the next is requested.
func waitForEvent(ex *session.Exchange) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ex.Events
		if !ok {
			return streamClosedMsg{token: ex.Token}
		}
		return streamEventMsg{token: ex.Token, ev: ev}
	}
}

func clearFeedbackAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearFeedbackMsg{}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshViewport()

	case tea.KeyMsg:
		model, keyCmd, handled := m.handleKey(msg)
		if handled {
			return model, keyCmd
		}
		m = model

	case conversationsLoadedMsg:
		m.loadingList = false
		if msg.err != nil {
			// Cancellation is never shown as an error
			if !apierrors.IsCancelled(msg.err) {
				m.store.SetError(msg.err.Error())
			}
		} else {
			m.store.SetAll(summariesToConversations(msg.summaries))
			m.rebuildSidebar()
		}
		m.refreshViewport()

	case conversationLoadedMsg:
		if msg.err != nil {
			if !apierrors.IsCancelled(msg.err) {
				m.store.SetError(msg.err.Error())
			}
		} else if msg.detail != nil {
			m.applyConversationDetail(msg.detail)
			m.rebuildSidebar()
		}
		m.refreshViewport()
		m.viewport.GotoBottom()

	case streamEventMsg:
		m.session.HandleEvent(msg.token, msg.ev)
		m.refreshViewport()
		m.viewport.GotoBottom()
		if m.exchange != nil && m.exchange.Token == msg.token {
			if msg.ev.Done || msg.ev.Err != nil {
				m.exchange = nil
				m.rebuildSidebar()
			} else {
				cmds = append(cmds, waitForEvent(m.exchange))
			}
		}

	case streamClosedMsg:
		m.session.Finish(msg.token)
		if m.exchange != nil && m.exchange.Token == msg.token {
			m.exchange = nil
		}
		m.rebuildSidebar()
		m.refreshViewport()

	case clearFeedbackMsg:
		m.feedback = ""

	case spinner.TickMsg:
		if m.store.Streaming() || m.loadingList {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks
	if !m.store.Streaming() && !m.sidebarFocused {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes one key press. handled reports that the key fully
// resolved to an action and child components must not see it.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Cancel()
		return m, tea.Quit, true

	case "esc":
		if m.store.Streaming() {
			m.session.Cancel()
			m.exchange = nil
			m.refreshViewport()
			return m, nil, true
		}
		if m.sidebarFocused {
			m.sidebarFocused = false
			m.textarea.Focus()
			return m, nil, true
		}
		if m.store.LastError() != "" {
			m.store.SetError("")
			return m, nil, true
		}
		return m, tea.Quit, true

	case "tab":
		if m.sidebarOpen {
			m.sidebarFocused = !m.sidebarFocused
			if m.sidebarFocused {
				m.textarea.Blur()
			} else {
				m.textarea.Focus()
			}
		}
		return m, nil, true

	case "ctrl+b":
		m.sidebarOpen = !m.sidebarOpen
		if !m.sidebarOpen {
			m.sidebarFocused = false
			m.textarea.Focus()
		}
		m.resize()
		m.refreshViewport()
		return m, nil, true

	case "ctrl+n":
		if !m.store.Streaming() {
			m.store.SetCurrent("")
			m.rebuildSidebar()
			m.refreshViewport()
		}
		return m, nil, true

	case "ctrl+y":
		return m.copyLastReply()

	case "up", "k":
		if m.sidebarFocused {
			m.moveSidebarCursor(-1)
			return m, nil, true
		}

	case "down", "j":
		if m.sidebarFocused {
			m.moveSidebarCursor(1)
			return m, nil, true
		}

	case "enter":
		if m.sidebarFocused {
			return m.openSelectedConversation()
		}
		return m.submitInput()
	}

	return m, nil, false
}

// submitInput starts a new exchange from the textarea content.
func (m Model) submitInput() (Model, tea.Cmd, bool) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil, true
	}
	if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
		return m, tea.Quit, true
	}

	m.textarea.Reset()
	ex, err := m.session.Submit(context.Background(), "", input)
	if err != nil {
		m.refreshViewport()
		return m, nil, true
	}
	m.exchange = ex
	m.rebuildSidebar()
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(waitForEvent(ex), m.spinner.Tick), true
}

// openSelectedConversation switches to the conversation under the
// sidebar cursor, fetching its history when only the summary is loaded.
func (m Model) openSelectedConversation() (Model, tea.Cmd, bool) {
	row, ok := m.selectedRow()
	if !ok || row.header {
		return m, nil, true
	}

	m.store.SetCurrent(row.convID)
	m.sidebarFocused = false
	m.textarea.Focus()
	m.refreshViewport()

	if conv, found := m.store.Get(row.convID); found && len(conv.Messages) == 0 {
		return m, m.loadConversation(row.convID), true
	}
	m.viewport.GotoBottom()
	return m, nil, true
}

// copyLastReply copies the newest assistant message to the clipboard.
func (m Model) copyLastReply() (Model, tea.Cmd, bool) {
	msgs := m.store.CurrentMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAssistant() && msgs[i].Content != "" {
			if err := clipboard.WriteAll(msgs[i].Content); err != nil {
				m.feedback = "Clipboard unavailable"
			} else {
				m.feedback = "✓ Copied reply to clipboard"
			}
			return m, clearFeedbackAfter(2 * time.Second), true
		}
	}
	m.feedback = "Nothing to copy yet"
	return m, clearFeedbackAfter(2 * time.Second), true
}

func (m *Model) moveSidebarCursor(delta int) {
	if len(m.sidebarRows) == 0 {
		return
	}
	i := m.sidebarCursor
	for {
		i += delta
		if i < 0 || i >= len(m.sidebarRows) {
			return
		}
		if !m.sidebarRows[i].header {
			m.sidebarCursor = i
			return
		}
	}
}

func (m Model) selectedRow() (sidebarRow, bool) {
	if m.sidebarCursor < 0 || m.sidebarCursor >= len(m.sidebarRows) {
		return sidebarRow{}, false
	}
	return m.sidebarRows[m.sidebarCursor], true
}

// rebuildSidebar flattens the date-grouped conversation list into rows.
func (m *Model) rebuildSidebar() {
	conversations := m.store.All()
	grouped := models.GroupByDate(conversations, time.Now())

	m.sidebarRows = m.sidebarRows[:0]
	for _, label := range models.GroupOrder {
		group := grouped[label]
		if len(group) == 0 {
			continue
		}
		m.sidebarRows = append(m.sidebarRows, sidebarRow{header: true, label: string(label)})
		for _, conv := range group {
			m.sidebarRows = append(m.sidebarRows, sidebarRow{
				label:  conv.Title,
				convID: conv.ID,
			})
		}
	}

	if m.sidebarCursor >= len(m.sidebarRows) {
		m.sidebarCursor = 0
	}
	if row, ok := m.selectedRow(); !ok || row.header {
		m.moveSidebarCursor(1)
	}
}

// resize recomputes component dimensions after a window change or a
// sidebar toggle.
func (m *Model) resize() {
	headerHeight := 4
	inputHeight := 6
	statusHeight := 1
	padding := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}

	contentWidth := m.width - 4
	if m.sidebarOpen {
		contentWidth -= sidebarWidth
	}
	if contentWidth < 20 {
		contentWidth = 20
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(m.width - 8)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	header := m.renderHeader(contentWidth)
	sections = append(sections, header)

	var messagesContent string
	if len(m.store.CurrentMessages()) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	messagesPanel := messagesAreaStyle.
		Width(m.viewport.Width).
		Height(m.viewport.Height).
		Render(messagesContent)

	if m.sidebarOpen {
		sidebar := m.renderSidebar(m.viewport.Height)
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, sidebar, messagesPanel))
	} else {
		sections = append(sections, messagesPanel)
	}

	var inputContent string
	if m.store.Streaming() {
		inputContent = loadingStyle.Render(m.spinner.View() + " Waiting for reply... (Esc to cancel)")
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	inputPanel := inputPanelStyle.Width(contentWidth).Render(inputContent)
	sections = append(sections, inputPanel)

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.feedback != "" {
		sections = append(sections, hintStyle.Render("  "+m.feedback))
	}
	if lastErr := m.store.LastError(); lastErr != "" {
		sections = append(sections, errorStyle.Render("  ⚠ "+lastErr))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	headerParts := []string{
		titleStyle.Render("✦ chatterm"),
	}
	if conv, ok := m.store.Current(); ok {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(truncateTitle(conv.Title, 48)),
		)
	} else {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render("new conversation"),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	return headerStyle.Width(width).Render(headerContent)
}

// renderSidebar renders the date-grouped conversation list.
func (m Model) renderSidebar(height int) string {
	var lines []string

	if m.loadingList {
		lines = append(lines, loadingStyle.Render(m.spinner.View()+" Loading..."))
	} else if len(m.sidebarRows) == 0 {
		lines = append(lines, hintStyle.Render("No conversations"))
	}

	currentID := m.store.CurrentID()
	innerWidth := sidebarWidth - 4

	visible := height
	start := 0
	if m.sidebarCursor >= visible {
		start = m.sidebarCursor - visible + 1
	}
	end := start + visible
	if end > len(m.sidebarRows) {
		end = len(m.sidebarRows)
	}

	for i := start; i < end; i++ {
		row := m.sidebarRows[i]
		if row.header {
			lines = append(lines, sidebarGroupStyle.Render(row.label))
			continue
		}

		title := truncateTitle(row.label, innerWidth-2)
		switch {
		case m.sidebarFocused && i == m.sidebarCursor:
			lines = append(lines, sidebarSelectedStyle.Render("▸ "+title))
		case row.convID == currentID:
			lines = append(lines, sidebarCurrentStyle.Render("● "+title))
		default:
			lines = append(lines, sidebarItemStyle.Render("  "+title))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return sidebarStyle.Width(sidebarWidth - 2).Height(height).Render(content)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to chatterm")
	subtitle := welcomeStyle.Width(width).Render("Start a conversation by typing a message below")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Tab", "Sidebar"},
		{"Ctrl+N", "New"},
		{"Ctrl+Y", "Copy"},
		{"Esc", "Cancel/Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// refreshViewport re-renders the current conversation into the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	streaming := m.store.Streaming()
	msgs := m.store.CurrentMessages()

	for i, msg := range msgs {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.IsUser() {
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("✦ Assistant")
			content.WriteString(label + "\n")

			text := msg.Content
			if text == "" && streaming && i == len(msgs)-1 {
				text = "…"
			}
			rendered, err := render.Markdown(text, render.OptionsFromConfig(m.cfg.Markdown, bubbleWidth-4))
			if err != nil {
				rendered = text
			}
			rendered = strings.TrimRight(rendered, "\n")

			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

func summariesToConversations(summaries []models.ConversationSummary) []models.Conversation {
	out := make([]models.Conversation, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, models.Conversation{
			ID:        s.ConversationID,
			Title:     s.Title,
			CreatedAt: parseBackendTime(s.CreatedAt),
			UpdatedAt: parseBackendTime(s.UpdatedAt),
		})
	}
	return out
}

// applyConversationDetail reconciles a fetched history with the local
// store. A conversation we already track keeps its entry and has its
// messages cleared and repopulated; an unknown one is inserted whole.
func (m *Model) applyConversationDetail(detail *models.ConversationDetail) {
	conv := detailToConversation(detail)
	if _, ok := m.store.Get(conv.ID); !ok {
		m.store.Upsert(conv)
		return
	}

	m.store.ClearMessages(conv.ID)
	for _, msg := range conv.Messages {
		m.store.AppendMessage(conv.ID, msg)
	}
	// The backend title wins over whatever the first append re-derived.
	if conv.Title != "" {
		m.store.SetTitle(conv.ID, conv.Title)
	}
}

func detailToConversation(detail *models.ConversationDetail) models.Conversation {
	conv := models.Conversation{
		ID:        detail.ConversationID,
		Title:     detail.Title,
		CreatedAt: parseBackendTime(detail.CreatedAt),
		UpdatedAt: parseBackendTime(detail.UpdatedAt),
	}
	for _, msg := range detail.Messages {
		conv.Messages = append(conv.Messages, models.Message{
			ID:      fmt.Sprintf("%s-%d", detail.ConversationID, len(conv.Messages)),
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return conv
}

// parseBackendTime accepts the RFC 3339 timestamps the backend emits,
// falling back to zero when absent.
func parseBackendTime(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// RunChat starts the chat TUI.
func RunChat(backend api.ChatBackend, st *store.Store, sess *session.Session, cfg config.Config) error {
	if ok := render.SetTUITheme(cfg.TUITheme); ok {
		UpdateTheme()
	}

	m := NewChatModel(backend, st, sess, cfg)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
