package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/chatterm/internal/config"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend health",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()
	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Backend unreachable"))
		return fmt.Errorf("backend unreachable: %w", err)
	}

	fmt.Printf("Backend:        %s\n", client.BaseURL())
	fmt.Printf("Status:         %s\n", health.Status)
	fmt.Printf("Environment:    %s\n", health.Environment)
	fmt.Printf("Model:          %s\n", health.Model)
	fmt.Printf("Memory backend: %s\n", health.MemoryBackend)
	return nil
}
