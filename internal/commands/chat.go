package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/chatterm/internal/config"
	"github.com/diogo/chatterm/internal/session"
	"github.com/diogo/chatterm/internal/store"
	"github.com/diogo/chatterm/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start interactive chat session",
	Long:  `Start an interactive chat session with the backend in a TUI interface.`,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()

	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	// Probe the backend before opening the TUI so connection problems
	// surface as a plain error line instead of a broken screen.
	spin := newSpinner("Connecting to backend")
	spin.start()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	health, err := client.Health(ctx)
	cancel()
	if err != nil {
		spin.fail()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Backend unreachable"))
		return fmt.Errorf("backend unreachable: %w", err)
	}
	spin.succeed(fmt.Sprintf("Connected (%s)", health.Model))

	st := store.New()
	var logf func(format string, args ...any)
	if cfg.Verbose {
		logf = verboseLogf
		st.Logf = verboseLogf
	}
	sess := session.New(st, client, logf)

	return tui.RunChat(client, st, sess, cfg)
}
