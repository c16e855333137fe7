package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/chatterm/internal/config"
	"github.com/diogo/chatterm/internal/export"
	"github.com/diogo/chatterm/internal/models"
	"github.com/diogo/chatterm/internal/tui"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Manage server-side conversations",
	Long:    `List, inspect and manage the conversations stored on the backend.`,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	RunE:  runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a conversation transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

var conversationsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a conversation",
	Args:  cobra.ExactArgs(2),
	RunE:  runConversationsRename,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

var conversationsManageCmd = &cobra.Command{
	Use:   "manage",
	Short: "Browse conversations interactively",
	RunE:  runConversationsManage,
}

var (
	exportFormatFlag string
	exportOutputFlag string
)

var conversationsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a conversation to markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsExport,
}

func init() {
	conversationsExportCmd.Flags().StringVar(&exportFormatFlag, "format", "markdown", "Export format (markdown, json)")
	conversationsExportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "Write the export to a file")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsRenameCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
	conversationsCmd.AddCommand(conversationsManageCmd)
	conversationsCmd.AddCommand(conversationsExportCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()
	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	summaries, err := client.ListConversations(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to list conversations"))
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tUPDATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t-------")

	for _, conv := range summaries {
		title := conv.Title
		if len(title) > 40 {
			title = title[:40] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			conv.ConversationID, title, conv.MessageCount, conv.UpdatedAt)
	}

	return w.Flush()
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()
	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	detail, err := client.GetConversation(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Conversation not found"))
		return fmt.Errorf("conversation not found: %w", err)
	}

	printConversation(detail)
	return nil
}

func printConversation(detail *models.ConversationDetail) {
	fmt.Printf("ID: %s\n", detail.ConversationID)
	fmt.Printf("Title: %s\n", detail.Title)
	fmt.Printf("Created: %s\n", detail.CreatedAt)
	fmt.Printf("Updated: %s\n", detail.UpdatedAt)
	fmt.Printf("Messages: %d\n", len(detail.Messages))
	fmt.Println()

	for i, msg := range detail.Messages {
		role := "You"
		if msg.Role == models.RoleAssistant {
			role = "Assistant"
		}
		fmt.Printf("[%d] %s:\n", i+1, role)

		content := msg.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Printf("  %s\n\n", content)
	}
}

func runConversationsRename(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()
	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	if err := client.UpdateTitle(ctx, args[0], args[1]); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to rename"))
		return fmt.Errorf("failed to rename: %w", err)
	}

	fmt.Printf("Renamed conversation %s to %q\n", args[0], args[1])
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()
	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	if err := client.DeleteConversation(ctx, args[0]); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to delete"))
		return fmt.Errorf("failed to delete: %w", err)
	}

	fmt.Printf("Deleted conversation: %s\n", args[0])
	return nil
}

func runConversationsExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormatFlag)
	if err != nil {
		return err
	}

	cfg, _ := config.LoadConfig()
	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	detail, err := client.GetConversation(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Conversation not found"))
		return fmt.Errorf("conversation not found: %w", err)
	}

	out, err := export.Conversation(detail, format)
	if err != nil {
		return err
	}

	if exportOutputFlag != "" {
		if err := os.WriteFile(exportOutputFlag, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Exported conversation to %s\n", exportOutputFlag)
		return nil
	}
	fmt.Print(out)
	return nil
}

func runConversationsManage(cmd *cobra.Command, args []string) error {
	cfg, _ := config.LoadConfig()
	client, err := newBackendClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	result, err := tui.RunManager(client, cfg.Timeout())
	if err != nil {
		return fmt.Errorf("manager failed: %w", err)
	}

	// Picking a conversation prints its transcript.
	if result.ConversationID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
		defer cancel()

		detail, err := client.GetConversation(ctx, result.ConversationID)
		if err != nil {
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Conversation not found"))
			return fmt.Errorf("conversation not found: %w", err)
		}
		printConversation(detail)
	}
	return nil
}
