package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/chatterm/internal/config"
	"github.com/diogo/chatterm/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show the current configuration, or change a setting with
'config set <key> <value>'.

Keys:
  base-url        Backend address (e.g. http://localhost:8000)
  timeout         Request timeout in seconds
  stream          Stream one-shot replies (true/false)
  verbose         Verbose logging (true/false)
  clipboard       Copy replies to clipboard (true/false)
  theme           TUI color theme
  markdown-style  Markdown rendering style`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available themes and markdown styles",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("TUI themes:")
		for _, theme := range render.AvailableTUIThemes() {
			fmt.Printf("  %s\n", theme.Name)
		}
		fmt.Println("\nMarkdown styles:")
		for _, theme := range render.AvailableThemes() {
			fmt.Printf("  %-12s %s\n", theme.Name, theme.Description)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configThemesCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Warning: %v (showing defaults)\n\n", err)
	}

	fmt.Printf("base-url:        %s\n", cfg.BaseURL)
	fmt.Printf("timeout:         %ds\n", cfg.TimeoutSeconds)
	fmt.Printf("stream:          %t\n", cfg.Stream)
	fmt.Printf("verbose:         %t\n", cfg.Verbose)
	fmt.Printf("clipboard:       %t\n", cfg.CopyToClipboard)
	fmt.Printf("theme:           %s\n", cfg.TUITheme)
	fmt.Printf("markdown-style:  %s\n", cfg.Markdown.Style)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()

	key, value := args[0], args[1]
	if err := applyConfigValue(&cfg, key, value); err != nil {
		return err
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "base-url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("base-url must start with http:// or https://")
		}
		cfg.BaseURL = strings.TrimRight(value, "/")
	case "timeout":
		secs, err := strconv.Atoi(value)
		if err != nil || secs <= 0 {
			return fmt.Errorf("timeout must be a positive number of seconds")
		}
		cfg.TimeoutSeconds = secs
	case "stream":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("stream must be true or false")
		}
		cfg.Stream = b
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false")
		}
		cfg.Verbose = b
	case "clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("clipboard must be true or false")
		}
		cfg.CopyToClipboard = b
	case "theme":
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)",
				value, strings.Join(render.TUIThemeNames(), ", "))
		}
		cfg.TUITheme = value
	case "markdown-style":
		// Builtin theme name or a path to a custom glamour JSON style
		if !render.IsBuiltinStyle(value) && !strings.HasSuffix(value, ".json") {
			return fmt.Errorf("unknown markdown style %q (available: %s, or a .json style path)",
				value, strings.Join(render.ThemeNames(), ", "))
		}
		cfg.Markdown.Style = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
