package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"chat-fe/internal/chat"
	"chat-fe/internal/config"
	"chat-fe/internal/logging"
	"chat-fe/internal/tui"

	"github.com/spf13/cobra"
)

type chatOptions struct {
	Plain bool
}

func newChatCmd() *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "line-based chat on stdin/stdout instead of the full-screen UI")
	return cmd
}

func runChat(cmd *cobra.Command, opts *chatOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The full-screen UI owns the terminal, so it only logs to a file.
	var fallback io.Writer = io.Discard
	if opts.Plain {
		fallback = cmd.ErrOrStderr()
	}
	logger, closeLog, err := logging.New(cfg.Log, fallback)
	if err != nil {
		return err
	}
	defer closeLog()

	ctrl, notice := chat.Open(cfg.Chat, nil, logger)
	if opts.Plain {
		return runREPL(cmd.Context(), ctrl, notice, cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return tui.Run(ctrl, notice, tui.Options{Style: cfg.UI.Style})
}

// runREPL reads one prompt per line until EOF or /exit and runs a turn for
// each non-blank line.
func runREPL(ctx context.Context, ctrl *chat.Controller, notice *chat.Notice, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	renderer := chat.WriterRenderer{Out: out}
	if notice != nil {
		renderer.RenderNotice(*notice)
	}
	fmt.Fprintln(out, "Type a prompt below to chat (/exit to quit)")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}
		ctrl.HandleUserTurn(ctx, line, renderer)
	}
	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
