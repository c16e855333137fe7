package render

// Markdown theme names. Dark, light, dracula, notty and ascii map
// straight onto glamour's built-in styles; tokyonight uses glamour's
// tokyo-night style.
const (
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeTokyoNight = "tokyonight"
	ThemeDracula    = "dracula"
	ThemeNotty      = "notty"
	ThemeASCII      = "ascii"
)

// glamourStyles maps theme names onto glamour style identifiers. Names
// outside the map are passed through unchanged, so a path to a custom
// JSON style still works.
var glamourStyles = map[string]string{
	ThemeDark:       "dark",
	ThemeLight:      "light",
	ThemeTokyoNight: "tokyo-night",
	ThemeDracula:    "dracula",
	ThemeNotty:      "notty",
	ThemeASCII:      "ascii",
}

// ResolveStyle translates a theme name into the style string handed to
// glamour.
func ResolveStyle(name string) string {
	if style, ok := glamourStyles[name]; ok {
		return style
	}
	return name
}

// IsBuiltinStyle reports whether the style names a bundled theme rather
// than a file path.
func IsBuiltinStyle(style string) bool {
	_, ok := glamourStyles[style]
	return ok
}

// ThemeInfo describes a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the markdown themes offered in configuration.
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeDark, Description: "Dark theme (default)"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemeNotty, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
