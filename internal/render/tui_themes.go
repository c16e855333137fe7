package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme for the chat interface.
type TUITheme struct {
	Name        string
	Description string

	// Base colors
	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	// Text colors
	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

// tuiThemes is the registry of selectable interface palettes, keyed by
// name. tokyonight is the default.
var tuiThemes = map[string]TUITheme{
	"tokyonight": {
		Name:        "tokyonight",
		Description: "Tokyo Night - Dark theme with blue accents",

		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#24283b"),
		Border:     lipgloss.Color("#414868"),

		Primary:   lipgloss.Color("#7aa2f7"),
		Secondary: lipgloss.Color("#9ece6a"),
		Accent:    lipgloss.Color("#bb9af7"),
		Warning:   lipgloss.Color("#e0af68"),
		Error:     lipgloss.Color("#f7768e"),

		Text:     lipgloss.Color("#c0caf5"),
		TextDim:  lipgloss.Color("#565f89"),
		TextMute: lipgloss.Color("#3b4261"),
	},
	"nord": {
		Name:        "nord",
		Description: "Nord - Arctic-inspired theme with cool tones",

		Background: lipgloss.Color("#2e3440"),
		Surface:    lipgloss.Color("#3b4252"),
		Border:     lipgloss.Color("#4c566a"),

		Primary:   lipgloss.Color("#88c0d0"),
		Secondary: lipgloss.Color("#a3be8c"),
		Accent:    lipgloss.Color("#b48ead"),
		Warning:   lipgloss.Color("#ebcb8b"),
		Error:     lipgloss.Color("#bf616a"),

		Text:     lipgloss.Color("#eceff4"),
		TextDim:  lipgloss.Color("#7b88a1"),
		TextMute: lipgloss.Color("#4c566a"),
	},
	"dracula": {
		Name:        "dracula",
		Description: "Dracula - Dark theme with vibrant colors",

		Background: lipgloss.Color("#282a36"),
		Surface:    lipgloss.Color("#44475a"),
		Border:     lipgloss.Color("#6272a4"),

		Primary:   lipgloss.Color("#8be9fd"),
		Secondary: lipgloss.Color("#50fa7b"),
		Accent:    lipgloss.Color("#ff79c6"),
		Warning:   lipgloss.Color("#f1fa8c"),
		Error:     lipgloss.Color("#ff5555"),

		Text:     lipgloss.Color("#f8f8f2"),
		TextDim:  lipgloss.Color("#6272a4"),
		TextMute: lipgloss.Color("#44475a"),
	},
}

// tuiThemeOrder fixes the display order for listings.
var tuiThemeOrder = []string{"tokyonight", "nord", "dracula"}

var (
	tuiThemeMu      sync.RWMutex
	currentTUITheme = tuiThemes["tokyonight"]
)

// GetTUITheme returns the currently active TUI theme.
func GetTUITheme() TUITheme {
	tuiThemeMu.RLock()
	defer tuiThemeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme sets the active TUI theme by name, reporting whether the
// name was known.
func SetTUITheme(name string) bool {
	theme, ok := tuiThemes[name]
	if !ok {
		return false
	}
	tuiThemeMu.Lock()
	currentTUITheme = theme
	tuiThemeMu.Unlock()
	return true
}

// GetTUIThemeByName returns a TUI theme by its name.
func GetTUIThemeByName(name string) (TUITheme, bool) {
	theme, ok := tuiThemes[name]
	return theme, ok
}

// AvailableTUIThemes returns all selectable TUI themes in display order.
func AvailableTUIThemes() []TUITheme {
	out := make([]TUITheme, 0, len(tuiThemeOrder))
	for _, name := range tuiThemeOrder {
		out = append(out, tuiThemes[name])
	}
	return out
}

// TUIThemeNames returns just the theme names for selection.
func TUIThemeNames() []string {
	names := make([]string, len(tuiThemeOrder))
	copy(names, tuiThemeOrder)
	return names
}
