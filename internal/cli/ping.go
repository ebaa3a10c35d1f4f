package cli

import (
	"context"
	"fmt"
	"strings"

	"chat-fe/internal/config"
	"chat-fe/internal/llm"

	"github.com/spf13/cobra"
)

type pingOptions struct {
	Stream bool
	Model  string
	URL    string
	Token  string
	Type   string
}

func newPingCmd() *cobra.Command {
	opts := &pingOptions{}
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Test connectivity to the configured completion endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Stream, "stream", false, "stream response")
	cmd.Flags().StringVar(&opts.Model, "model", "", "override model or deployment name")
	cmd.Flags().StringVar(&opts.URL, "url", "", "override endpoint url")
	cmd.Flags().StringVar(&opts.Token, "token", "", "override access token")
	cmd.Flags().StringVar(&opts.Type, "type", "", "override provider type")

	return cmd
}

func runPing(cmd *cobra.Command, opts *pingOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	chatCfg := cfg.Chat
	chatCfg.Type = firstNonEmpty(opts.Type, chatCfg.Type)
	chatCfg.Model = firstNonEmpty(opts.Model, chatCfg.Model)
	chatCfg.Endpoint = firstNonEmpty(opts.URL, chatCfg.Endpoint)
	chatCfg.Token = firstNonEmpty(opts.Token, chatCfg.Token)
	if err := chatCfg.Require(); err != nil {
		return err
	}

	client, err := llm.New(chatCfg.LLM())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if chatCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, chatCfg.Timeout)
		defer cancel()
	}

	req := llm.ChatRequest{
		Model: chatCfg.Model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "ping"},
		},
	}

	if opts.Stream {
		_, err = client.ChatStream(ctx, req, func(delta string) error {
			_, writeErr := fmt.Fprint(cmd.OutOrStdout(), delta)
			return writeErr
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}

	resp, err := client.Chat(ctx, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
	return err
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
