package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/spf13/cobra"
)

func newConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Inspect and maintain saved conversations",
	}
	cmd.AddCommand(
		newConversationsListCmd(),
		newConversationsShowCmd(),
		newConversationsDeleteCmd(),
		newConversationsExportCmd(),
		newConversationsPruneCmd(),
	)
	return cmd
}

func newConversationsListCmd() *cobra.Command {
	var assistantID string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an assistant's conversations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if _, err := a.assistants.Get(assistantID); err != nil {
				return err
			}
			convs := a.store.LoadRecent(assistantID)
			if all {
				convs = a.store.LoadAll(assistantID)
			}
			printConversations(cmd.OutOrStdout(), convs, a.store.CurrentConversationID(assistantID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&assistantID, "assistant", "a", config.DefaultAssistantID, "assistant id")
	cmd.Flags().BoolVar(&all, "all", false, "include conversations beyond the visible ones")
	return cmd
}

func printConversations(out io.Writer, convs []domain.Conversation, current string) {
	if len(convs) == 0 {
		fmt.Fprintln(out, "No conversations.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tUPDATED\tMESSAGES\tTITLE")
	for _, c := range convs {
		marker := ""
		if c.ID == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", marker, c.ID, c.LastUpdated.Format("2006-01-02 15:04"), len(c.Messages), c.Title)
	}
	w.Flush()
}

func newConversationsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print the messages of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, ok := appFrom(cmd).store.Get(args[0])
			if !ok {
				return fmt.Errorf("show %s: %w", args[0], domain.ErrConversationNotFound)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n\n", conv.Title, conv.AssistantID)
			for _, m := range conv.Messages {
				fmt.Fprintf(out, "[%s] %s%s\n%s\n\n", m.Timestamp.Format("15:04:05"), m.Role, feedbackMark(m), m.Content)
			}
			return nil
		},
	}
}

func feedbackMark(m domain.Message) string {
	switch {
	case m.Liked:
		return " 👍"
	case m.Disliked:
		return " 👎"
	default:
		return ""
	}
}

func newConversationsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			conv, ok := a.store.Get(args[0])
			if !ok {
				return fmt.Errorf("delete %s: %w", args[0], domain.ErrConversationNotFound)
			}
			_, wasActive := a.store.Delete(conv.ID, conv.AssistantID)
			if wasActive {
				a.store.ForgetCurrent(conv.AssistantID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", conv.Title)
			return nil
		},
	}
}

func newConversationsExportCmd() *cobra.Command {
	var assistantID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write conversations as JSON to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			var convs []domain.Conversation
			if assistantID != "" {
				if _, err := a.assistants.Get(assistantID); err != nil {
					return err
				}
				convs = a.store.LoadAll(assistantID)
			} else {
				for _, as := range a.assistants.List() {
					convs = append(convs, a.store.LoadAll(as.ID)...)
				}
			}
			if convs == nil {
				convs = []domain.Conversation{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(convs); err != nil {
				return fmt.Errorf("encode conversations: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&assistantID, "assistant", "a", "", "only this assistant (default all)")
	return cmd
}

func newConversationsPruneCmd() *cobra.Command {
	var assistantID string
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent conversations of an assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if _, err := a.assistants.Get(assistantID); err != nil {
				return err
			}
			if keep < 0 {
				return &domain.ValidationError{Fields: map[string]string{"keep": "must not be negative"}}
			}
			n := a.store.Prune(assistantID, keep)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d conversations.\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&assistantID, "assistant", "a", config.DefaultAssistantID, "assistant id")
	cmd.Flags().IntVar(&keep, "keep", config.MaxRecentConversations, "conversations to keep")
	return cmd
}
