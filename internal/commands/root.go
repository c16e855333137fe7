// Package commands provides CLI commands for chatterm.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFlag       string
	fileFlag         string
	rawFlag          bool
	streamFlag       bool
	noStreamFlag     bool
	copyFlag         bool
	conversationFlag string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatterm [prompt]",
	Short: "Terminal client for a streaming chat backend",
	Long: `chatterm is a command-line client for a chat backend. It streams
assistant replies over SSE and keeps conversation history on the server.

Examples:
  chatterm chat                         Start interactive chat
  chatterm config                       Show settings
  chatterm "What is Go?"                Send a single query
  chatterm -f prompt.md                 Read prompt from file
  cat prompt.md | chatterm              Read prompt from stdin
  chatterm "Hello" -o response.md       Save response to file
  chatterm -c <id> "And then?"          Continue a conversation`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("chatterm %s (built %s)\n", Version, BuildTime)
			return nil
		}

		// Check for stdin input
		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		// Piped stdout drops the decoration too
		raw := rawFlag || !isStdoutTTY()

		// Check for file input
		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data), raw)
		}

		// Check for stdin
		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data), raw)
		}

		// Check for positional argument
		if len(args) > 0 {
			return runQuery(args[0], raw)
		}

		// No input - show help
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().StringVarP(&conversationFlag, "conversation", "c", "", "Continue an existing conversation by ID")
	rootCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print only the raw response text")
	rootCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the response to the clipboard")
	rootCmd.Flags().BoolVar(&streamFlag, "stream", false, "Stream the response as it is generated")
	rootCmd.Flags().BoolVar(&noStreamFlag, "no-stream", false, "Wait for the complete response")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(healthCmd)
}
