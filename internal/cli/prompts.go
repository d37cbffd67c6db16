package cli

import (
	"fmt"
	"time"

	"github.com/set-night/mindchat/internal/config"
	"github.com/spf13/cobra"
)

func newPromptsCmd() *cobra.Command {
	var assistantID string

	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "System prompt history",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List an assistant's recent system prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if _, err := a.assistants.Get(assistantID); err != nil {
				return err
			}
			items := a.history.Load(assistantID)
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No prompts.")
				return nil
			}
			for i, it := range items {
				fmt.Fprintf(out, "%d. %s\n%s\n\n", i+1, time.UnixMilli(it.Timestamp).Format(time.DateTime), it.Prompt)
			}
			return nil
		},
	}
	list.Flags().StringVarP(&assistantID, "assistant", "a", config.DefaultAssistantID, "assistant id")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the prompt history of every assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			appFrom(cmd).history.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "Prompt history cleared.")
			return nil
		},
	}

	cmd.AddCommand(list, clearCmd)
	return cmd
}
