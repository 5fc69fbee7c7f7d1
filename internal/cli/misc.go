package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/logtail"
)

const (
	chatUnavailableReply = "Sorry, the AI service is not ready yet."
	chatEmptyReply       = "(no reply)"
)

func newPingCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := r.services()
			if err != nil {
				return err
			}
			health, err := svc.Client.Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s unreachable: %s", svc.Client.BaseURL(), backend.Describe(err))
			}
			msg := strings.TrimSpace(health.Message)
			if msg == "" {
				msg = health.Status
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ok: %s\n", svc.Client.BaseURL(), msg)
			return nil
		},
	}
}

func newChatCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message...]",
		Short: "Ask the log assistant a question",
		Long: `Send a message to the backend assistant. Without arguments, read
one message per line from stdin and keep the conversation going
until EOF.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := r.services()
			if err != nil {
				return err
			}
			c := &chat{api: svc.Client, out: cmd.OutOrStdout()}
			if len(args) > 0 {
				c.say(cmd, strings.Join(args, " "))
				return nil
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					c.say(cmd, line)
				}
			}
			return scanner.Err()
		},
	}
}

type chatter interface {
	Chat(ctx context.Context, messages []backend.ChatMessage) (string, error)
}

// chat keeps the conversation history sent with every turn.
type chat struct {
	api     chatter
	out     io.Writer
	history []backend.ChatMessage
}

// say sends one user turn. A failing backend yields a placeholder reply so
// the conversation can continue.
func (c *chat) say(cmd *cobra.Command, text string) {
	c.history = append(c.history, backend.ChatMessage{Role: "user", Content: text})
	reply, err := c.api.Chat(cmd.Context(), c.history)
	switch {
	case err != nil:
		log.WithError(err).Warn("assistant unavailable, showing a placeholder reply")
		reply = chatUnavailableReply
	case strings.TrimSpace(reply) == "":
		reply = chatEmptyReply
	}
	c.history = append(c.history, backend.ChatMessage{Role: "assistant", Content: reply})
	fmt.Fprintln(c.out, reply)
}

func newDebugLogCommand(r *root) *cobra.Command {
	var lines int
	var raw bool
	cmd := &cobra.Command{
		Use:   "debuglog",
		Short: "Show the tail of sleuth's own log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := logtail.Read(r.cfg.LogFile, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "no log entries in %s\n", r.cfg.LogFile)
				return nil
			}
			for _, line := range entries {
				if !raw {
					line = logtail.Format(line)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the JSON lines unformatted")
	return cmd
}
