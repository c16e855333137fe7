package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatterm/internal/api"
	"github.com/diogo/chatterm/internal/models"
)

// ManagerMode represents the current mode of the manager
type ManagerMode int

const (
	ModeNormal ManagerMode = iota
	ModeRename
	ModeSearch
	ModeConfirmDelete
)

// managerLoadedMsg is sent when the conversation list arrives
type managerLoadedMsg struct {
	summaries []models.ConversationSummary
	err       error
}

// managerActionMsg reports the outcome of a rename or delete
type managerActionMsg struct {
	feedback string
	err      error
}

// ManagerModel is the conversation manager TUI state
type ManagerModel struct {
	backend api.ChatBackend
	timeout time.Duration

	// Data
	summaries []models.ConversationSummary
	filtered  []models.ConversationSummary

	// Navigation
	cursor int

	// State
	loading bool
	err     error
	mode    ManagerMode

	// Rename mode
	renameInput textinput.Model
	renameID    string

	// Search mode
	searchInput  textinput.Model
	searchQuery  string
	searchActive bool

	// Delete confirmation
	deleteID    string
	deleteTitle string

	// Result
	selectedID string
	shouldQuit bool
	feedback   string

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewManagerModel creates a new conversation manager model
func NewManagerModel(backend api.ChatBackend, timeout time.Duration) ManagerModel {
	renameInput := textinput.New()
	renameInput.Placeholder = "New title..."
	renameInput.CharLimit = 100

	searchInput := textinput.New()
	searchInput.Placeholder = "Search..."
	searchInput.CharLimit = 50

	return ManagerModel{
		backend:     backend,
		timeout:     timeout,
		loading:     true,
		mode:        ModeNormal,
		renameInput: renameInput,
		searchInput: searchInput,
	}
}

// Init initializes the model and starts loading conversations
func (m ManagerModel) Init() tea.Cmd {
	return m.loadConversations()
}

// loadConversations returns a command that fetches the list from the backend
func (m ManagerModel) loadConversations() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		summaries, err := m.backend.ListConversations(ctx)
		if err != nil {
			return managerLoadedMsg{err: err}
		}
		return managerLoadedMsg{summaries: summaries}
	}
}

func (m ManagerModel) renameConversation(id, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := m.backend.UpdateTitle(ctx, id, title); err != nil {
			return managerActionMsg{err: err}
		}
		return managerActionMsg{feedback: fmt.Sprintf("✓ Renamed to '%s'", truncateTitle(title, 30))}
	}
}

func (m ManagerModel) deleteConversation(id, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := m.backend.DeleteConversation(ctx, id); err != nil {
			return managerActionMsg{err: err}
		}
		return managerActionMsg{feedback: fmt.Sprintf("✓ Deleted '%s'", truncateTitle(title, 30))}
	}
}

// Update handles messages and updates the model
func (m ManagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case managerLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.summaries = msg.summaries
			m.applyFilter()
		}

	case managerActionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.feedback = msg.feedback
		return m, m.loadConversations()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch m.mode {
		case ModeRename:
			return m.updateRenameMode(msg)
		case ModeSearch:
			return m.updateSearchMode(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDeleteMode(msg)
		default:
			return m.updateNormalMode(msg)
		}
	}

	return m, nil
}

// updateNormalMode handles input in normal mode
func (m ManagerModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		m.shouldQuit = true
		return m, tea.Quit

	case "up", "k":
		if len(m.filtered) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.filtered) - 1
			}
		}

	case "down", "j":
		if len(m.filtered) > 0 {
			m.cursor++
			if m.cursor >= len(m.filtered) {
				m.cursor = 0
			}
		}

	case "enter":
		if len(m.filtered) > 0 {
			m.selectedID = m.filtered[m.cursor].ConversationID
			return m, tea.Quit
		}

	case "r":
		if len(m.filtered) > 0 {
			conv := m.filtered[m.cursor]
			m.mode = ModeRename
			m.renameID = conv.ConversationID
			m.renameInput.SetValue(conv.Title)
			m.renameInput.Focus()
			return m, textinput.Blink
		}

	case "d":
		if len(m.filtered) > 0 {
			conv := m.filtered[m.cursor]
			m.mode = ModeConfirmDelete
			m.deleteID = conv.ConversationID
			m.deleteTitle = conv.Title
		}

	case "/":
		m.mode = ModeSearch
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink

	case "home", "g":
		m.cursor = 0

	case "end", "G":
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		}

	case "?":
		m.feedback = "↑↓:Nav  r:Rename  d:Del  /:Search  Enter:Open  q:Quit"
	}

	return m, nil
}

// updateRenameMode handles input in rename mode
func (m ManagerModel) updateRenameMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.renameInput.Blur()
		return m, nil

	case "enter":
		newTitle := strings.TrimSpace(m.renameInput.Value())
		m.mode = ModeNormal
		m.renameInput.Blur()
		if newTitle != "" {
			return m, m.renameConversation(m.renameID, newTitle)
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.renameInput, cmd = m.renameInput.Update(msg)
		return m, cmd
	}
}

// updateSearchMode handles input in search mode
func (m ManagerModel) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.searchInput.Blur()
		m.searchQuery = ""
		m.searchActive = false
		m.applyFilter()
		return m, nil

	case "enter":
		m.searchQuery = m.searchInput.Value()
		m.searchActive = m.searchQuery != ""
		m.mode = ModeNormal
		m.searchInput.Blur()
		m.applyFilter()
		m.cursor = 0
		return m, nil

	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
}

// updateConfirmDeleteMode handles input in delete confirmation mode
func (m ManagerModel) updateConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		if m.cursor >= len(m.filtered)-1 && m.cursor > 0 {
			m.cursor--
		}
		return m, m.deleteConversation(m.deleteID, m.deleteTitle)

	case "n", "N", "esc":
		m.mode = ModeNormal
		return m, nil
	}

	return m, nil
}

// applyFilter filters conversations by the active search query
func (m *ManagerModel) applyFilter() {
	m.filtered = m.filtered[:0]

	for _, conv := range m.summaries {
		if m.searchActive && m.searchQuery != "" {
			if !strings.Contains(strings.ToLower(conv.Title), strings.ToLower(m.searchQuery)) {
				continue
			}
		}
		m.filtered = append(m.filtered, conv)
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// View renders the TUI
func (m ManagerModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.loading {
		return loadingStyle.Render("  Loading conversations...")
	}

	var sections []string
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	sections = append(sections, m.renderHeader(contentWidth))
	sections = append(sections, m.renderList(contentWidth))

	if m.err != nil {
		sections = append(sections, errorStyle.Render("  ⚠ "+m.err.Error()))
	}
	if m.feedback != "" {
		sections = append(sections, managerFeedbackStyle.Render("  "+m.feedback))
	}

	switch m.mode {
	case ModeRename:
		sections = append(sections, m.renderRenameInput(contentWidth))
	case ModeSearch:
		sections = append(sections, m.renderSearchInput(contentWidth))
	case ModeConfirmDelete:
		sections = append(sections, m.renderDeleteConfirm(contentWidth))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the header panel
func (m ManagerModel) renderHeader(width int) string {
	title := managerTitleStyle.Render("Conversation Manager")

	searchInfo := ""
	if m.searchActive && m.searchQuery != "" {
		searchInfo = hintStyle.Render(fmt.Sprintf("  Search: \"%s\"", m.searchQuery))
	}

	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, title, searchInfo)
	return managerHeaderStyle.Width(width).Render(headerContent)
}

// renderList renders the conversation list
func (m ManagerModel) renderList(width int) string {
	var items []string

	if len(m.filtered) == 0 {
		if m.searchActive {
			items = append(items, hintStyle.Render(fmt.Sprintf("  No conversations matching '%s'", m.searchQuery)))
		} else {
			items = append(items, hintStyle.Render("  No conversations found"))
		}
	} else {
		availableHeight := m.height - 12
		maxItems := max(5, availableHeight)

		scrollOffset := 0
		if m.cursor >= maxItems {
			scrollOffset = m.cursor - maxItems + 1
		}

		endIdx := min(scrollOffset+maxItems, len(m.filtered))

		if scrollOffset > 0 {
			items = append(items, hintStyle.Render("  ↑ more..."))
		}

		for i := scrollOffset; i < endIdx; i++ {
			items = append(items, m.renderItem(i, m.filtered[i]))
		}

		if endIdx < len(m.filtered) {
			items = append(items, hintStyle.Render("  ↓ more..."))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)
	return managerPanelStyle.Width(width).Render(content)
}

// renderItem renders a single conversation row
func (m ManagerModel) renderItem(index int, conv models.ConversationSummary) string {
	cursor := "  "
	style := managerItemStyle
	if index == m.cursor {
		cursor = managerCursorStyle.Render("▸ ")
		style = managerSelectedStyle
	}

	indexStr := managerDimStyle.Render(fmt.Sprintf("%2d.", index+1))
	titleText := style.Render(truncateTitle(conv.Title, 40))

	relTime := ""
	if ts := parseBackendTime(conv.UpdatedAt); ts > 0 {
		relTime = ", " + models.FormatRelativeTime(ts, time.Now())
	}
	info := managerDimStyle.Render(fmt.Sprintf(" (%d msgs%s)", conv.MessageCount, relTime))

	return fmt.Sprintf("%s%s %s%s", cursor, indexStr, titleText, info)
}

// renderRenameInput renders the rename input field
func (m ManagerModel) renderRenameInput(width int) string {
	label := managerSectionStyle.Render("Rename:")
	input := m.renameInput.View()
	hint := hintStyle.Render("  Enter: Confirm  Esc: Cancel")
	content := lipgloss.JoinVertical(lipgloss.Left, label, input, hint)
	return managerPanelStyle.Width(width).Render(content)
}

// renderSearchInput renders the search input field
func (m ManagerModel) renderSearchInput(width int) string {
	label := managerSectionStyle.Render("Search:")
	input := m.searchInput.View()
	hint := hintStyle.Render("  Enter: Search  Esc: Cancel")
	content := lipgloss.JoinVertical(lipgloss.Left, label, input, hint)
	return managerPanelStyle.Width(width).Render(content)
}

// renderDeleteConfirm renders the delete confirmation
func (m ManagerModel) renderDeleteConfirm(width int) string {
	question := errorStyle.Render(fmt.Sprintf("Delete '%s'?", truncateTitle(m.deleteTitle, 30)))
	hint := hintStyle.Render("  Y: Confirm  N/Esc: Cancel")
	content := lipgloss.JoinVertical(lipgloss.Left, question, hint)
	return managerPanelStyle.Width(width).Render(content)
}

// renderStatusBar renders the bottom status bar
func (m ManagerModel) renderStatusBar(width int) string {
	var shortcuts []struct {
		key  string
		desc string
	}

	switch m.mode {
	case ModeRename:
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"Enter", "Save"},
			{"Esc", "Cancel"},
		}
	case ModeSearch:
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"Enter", "Search"},
			{"Esc", "Cancel"},
		}
	case ModeConfirmDelete:
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"Y", "Delete"},
			{"N", "Cancel"},
		}
	default:
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"↑↓", "Nav"},
			{"r", "Rename"},
			{"d", "Del"},
			{"/", "Search"},
			{"Enter", "Open"},
			{"q", "Quit"},
		}
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

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  "))
	return managerStatusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// Result returns the selected conversation id ("" if none selected)
func (m ManagerModel) Result() (string, bool) {
	return m.selectedID, m.shouldQuit
}

// ManagerResult contains the result of running the conversation manager
type ManagerResult struct {
	ConversationID string // "" if no conversation selected
	ShouldQuit     bool   // true if the user quit without selecting
}

// RunManager starts the conversation manager TUI and returns the result
func RunManager(backend api.ChatBackend, timeout time.Duration) (ManagerResult, error) {
	m := NewManagerModel(backend, timeout)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return ManagerResult{}, err
	}

	if mm, ok := finalModel.(ManagerModel); ok {
		id, quit := mm.Result()
		return ManagerResult{ConversationID: id, ShouldQuit: quit}, nil
	}

	return ManagerResult{ShouldQuit: true}, nil
}
