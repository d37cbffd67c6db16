package cli

import (
	"fmt"
	"io"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
	"github.com/spf13/cobra"
)

func newContextCmd() *cobra.Command {
	var assistantID string

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show or change the context budget",
	}
	cmd.PersistentFlags().StringVarP(&assistantID, "assistant", "a", config.DefaultAssistantID, "assistant whose resolved budget is shown")

	show := func(cmd *cobra.Command) error {
		a := appFrom(cmd)
		if _, err := a.assistants.Get(assistantID); err != nil {
			return err
		}
		printContext(cmd.OutOrStdout(), a.settings.Resolve(assistantID), a.settings.UserOverride())
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved budget",
			RunE: func(cmd *cobra.Command, args []string) error {
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "set key=value...",
			Short: "Override budget fields for every assistant",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				o, err := service.ParseContextOverride(args)
				if err != nil {
					return err
				}
				if _, err := appFrom(cmd).settings.SaveUserOverride(o); err != nil {
					return err
				}
				return show(cmd)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Drop your overrides",
			RunE: func(cmd *cobra.Command, args []string) error {
				appFrom(cmd).settings.ResetUserOverride()
				return show(cmd)
			},
		},
	)
	return cmd
}

func printContext(out io.Writer, cfg domain.ContextConfig, user domain.ContextOverride) {
	row := func(name string, value any, set bool) {
		src := "default"
		if set {
			src = "user"
		}
		fmt.Fprintf(out, "%-24s %-8v %s\n", name, value, src)
	}
	row("maxMessages", cfg.MaxMessages, user.MaxMessages != nil)
	row("maxCharsPerMessage", cfg.MaxCharsPerMessage, user.MaxCharsPerMessage != nil)
	row("maxTotalChars", cfg.MaxTotalChars, user.MaxTotalChars != nil)
	row("preserveRecentMessages", cfg.PreserveRecentMessages, user.PreserveRecentMessages != nil)
	row("enableOptimization", cfg.EnableOptimization, user.EnableOptimization != nil)
}
