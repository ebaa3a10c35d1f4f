package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"chat-fe/internal/chat"
	"chat-fe/internal/config"
	"chat-fe/internal/logging"

	"github.com/spf13/cobra"
)

type askOptions struct {
	InputFile string
}

func newAskCmd() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: "Send a single prompt and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.InputFile, "file", "F", "", "prompt file, use -F- for stdin")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *askOptions, args []string) error {
	input, err := readInput(args, opts.InputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	ctrl, notice := chat.Open(cfg.Chat, nil, logger)
	if notice != nil {
		return errors.New(notice.Text)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := ctrl.HandleUserTurn(ctx, input, chat.WriterRenderer{
		Out:       cmd.OutOrStdout(),
		ReplyOnly: true,
	})
	if out.Notice != nil {
		return errors.New(out.Notice.Text)
	}
	return nil
}

func readInput(args []string, inputFile string, stdin io.Reader) (string, error) {
	if inputFile != "" && len(args) > 0 {
		return "", fmt.Errorf("input args and -F are mutually exclusive")
	}
	if inputFile == "" {
		if len(args) == 0 {
			return "", fmt.Errorf("missing input: provide args or -F")
		}
		return strings.Join(args, " "), nil
	}
	if inputFile == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return trimTrailingNewline(string(data)), nil
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return trimTrailingNewline(string(data)), nil
}

func trimTrailingNewline(value string) string {
	return strings.TrimRight(value, "\r\n")
}
