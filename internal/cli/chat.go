package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
	"github.com/spf13/cobra"
)

const chatHelp = `Type a message and press Enter. Commands:
  /new     clear the chat and start a new conversation
  /regen   regenerate the last reply
  /like    like the last reply
  /dislike dislike the last reply
  /exit    quit
Ctrl-C stops a running generation; pressed while idle it quits.`

func newChatCmd() *cobra.Command {
	var assistantID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with an assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			out := cmd.OutOrStdout()

			engine := service.NewEngine(assistantID, a.engineDeps(),
				service.WithNotifier(service.NotifierFunc(func(n domain.Notice) {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", n.Level, n.Text)
				})),
				service.WithSaveDebounce(a.cfg.SaveDebounce),
				service.WithMessagesObserver(service.LogChanges(assistantID)),
			)
			assistant, err := a.assistants.Get(assistantID)
			if err != nil {
				return err
			}
			defer engine.Flush()

			fmt.Fprintf(out, "%s (%s)\n%s\n\n", assistant.Title, assistant.Model, chatHelp)
			if engine.Resume() {
				fmt.Fprintf(out, "Resumed conversation with %d messages.\n", len(engine.Messages()))
			}

			interrupts := make(chan os.Signal, 1)
			signal.Notify(interrupts, os.Interrupt)
			defer signal.Stop(interrupts)

			return runREPL(cmd.Context(), engine, cmd.InOrStdin(), out, interrupts)
		},
	}

	cmd.Flags().StringVarP(&assistantID, "assistant", "a", config.DefaultAssistantID, "assistant id")
	return cmd
}

// scanLines delivers input lines until EOF or until done is closed. The
// returned channel is closed in both cases.
func scanLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// runREPL reads prompts until EOF, /exit or an idle interrupt.
func runREPL(ctx context.Context, engine *service.Engine, in io.Reader, out io.Writer, interrupts <-chan os.Signal) error {
	done := make(chan struct{})
	defer close(done)
	lines := scanLines(in, done)

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case <-interrupts:
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		var call func(context.Context) (domain.Message, error)
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/help":
			fmt.Fprintln(out, chatHelp)
			continue
		case "/new":
			engine.ResetChat()
			continue
		case "/like", "/dislike":
			fb := domain.FeedbackLike
			if line == "/dislike" {
				fb = domain.FeedbackDislike
			}
			if err := engine.SetFeedback(lastReplyID(engine.Messages()), fb); err != nil {
				fmt.Fprintln(out, "✗", err)
			}
			continue
		case "/regen":
			id := lastReplyID(engine.Messages())
			call = func(ctx context.Context) (domain.Message, error) { return engine.Regenerate(ctx, id) }
		default:
			prompt := line
			call = func(ctx context.Context) (domain.Message, error) { return engine.Submit(ctx, prompt) }
		}

		waitReply(ctx, engine, call, out, interrupts)
	}
}

// waitReply runs call while watching for interrupts, which stop the
// generation instead of quitting.
func waitReply(ctx context.Context, engine *service.Engine, call func(context.Context) (domain.Message, error), out io.Writer, interrupts <-chan os.Signal) {
	type result struct {
		msg domain.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := call(ctx)
		done <- result{msg, err}
	}()

	for {
		select {
		case <-interrupts:
			engine.Stop()
		case r := <-done:
			switch {
			case r.err == nil:
				fmt.Fprintf(out, "\n%s\n\n", r.msg.Content)
			case isPrecondition(r.err):
				fmt.Fprintln(out, "✗", r.err)
			}
			// other failures were reported by the notifier
			return
		}
	}
}

func isPrecondition(err error) bool {
	for _, target := range []error{domain.ErrEmptyPrompt, domain.ErrRequestInFlight, domain.ErrMessageNotFound, domain.ErrNotRegenerable} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func lastReplyID(msgs []domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleSystem {
			return msgs[i].ID
		}
	}
	return ""
}
