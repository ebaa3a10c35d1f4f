package chat

import (
	"log/slog"
	"strings"

	"chat-fe/internal/config"
	"chat-fe/internal/llm"
	"chat-fe/internal/session"
)

// ClientFactory builds the completion client for a session.
type ClientFactory func(cfg llm.Config) (llm.Client, error)

// Open starts a session from cfg. The store is initialized with the system
// preamble and the client is built once; if the settings are missing or the
// client cannot be built, the session stays not ready and the returned
// notice explains why.
func Open(cfg config.ChatConfig, build ClientFactory, logger *slog.Logger) (*Controller, *Notice) {
	if build == nil {
		build = llm.New
	}
	if logger == nil {
		logger = slog.Default()
	}

	preamble := cfg.SystemPrompt
	if strings.TrimSpace(preamble) == "" {
		preamble = config.DefaultSystemPrompt
	}
	store := session.New(preamble)
	store.Initialize()

	opts := []Option{
		WithModel(cfg.Model),
		WithTimeout(cfg.Timeout),
		WithWindow(session.WindowPolicy{
			MaxMessages: cfg.History.MaxMessages,
			TokenBudget: cfg.History.TokenBudget,
		}),
		WithLogger(logger),
	}

	if err := cfg.Require(); err != nil {
		return notReady(store, logger, err, opts)
	}
	client, err := build(cfg.LLM())
	if err != nil {
		return notReady(store, logger, err, opts)
	}

	store.SetReady(true)
	logger.Info("session.start",
		slog.String("session", store.ID()),
		slog.String("type", cfg.Type),
		slog.String("model", cfg.Model),
	)
	return New(store, client, opts...), nil
}

func notReady(store *session.Store, logger *slog.Logger, err error, opts []Option) (*Controller, *Notice) {
	notice := configNotice(err)
	logger.Warn("session.not_ready",
		slog.String("session", store.ID()),
		slog.String("error", err.Error()),
	)
	return New(store, nil, opts...), &notice
}
