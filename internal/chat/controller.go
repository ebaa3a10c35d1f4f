// Package chat drives the conversation: one request/response cycle per user
// input against a session.Store and an llm.Client.
//
// A turn has three steps. Submit appends the user message. Request calls the
// completion client with the transcript and reports an Outcome without
// touching the store. Apply records the outcome. HandleUserTurn runs all three
// and renders as it goes; interactive front-ends that must stay responsive
// during the call run the steps themselves.
package chat

import (
	"context"
	"io"
	"log/slog"
	"time"

	"chat-fe/internal/llm"
	"chat-fe/internal/session"
)

// Renderer displays a turn as it progresses.
type Renderer interface {
	RenderMessage(msg llm.Message)
	RenderNotice(notice Notice)
}

// Outcome is the result of the completion step of a turn. Exactly one of
// Reply and Notice is set.
type Outcome struct {
	Reply  *llm.Message
	Notice *Notice
	// Called reports whether the completion client was invoked.
	Called bool
}

type Controller struct {
	store   *session.Store
	client  llm.Client
	model   string
	window  session.WindowPolicy
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Controller)

// WithModel sets the model or deployment identifier sent with each request.
func WithModel(model string) Option {
	return func(c *Controller) { c.model = model }
}

func WithWindow(policy session.WindowPolicy) Option {
	return func(c *Controller) { c.window = policy }
}

// WithTimeout bounds each completion call. Zero leaves the call unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) { c.timeout = timeout }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a controller for store. client may be nil when the session is
// not ready; turns then short-circuit.
func New(store *session.Store, client llm.Client, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("session", store.ID()))
	return c
}

func (c *Controller) Store() *session.Store {
	return c.store
}

// Submit appends input to the transcript as a user message.
func (c *Controller) Submit(input string) llm.Message {
	msg := llm.Message{Role: llm.RoleUser, Content: input}
	c.store.Append(msg)
	return msg
}

// Request sends the current transcript to the completion client once. It
// does not modify the store.
func (c *Controller) Request(ctx context.Context) Outcome {
	if !c.store.Ready() || c.client == nil {
		c.logger.Warn("turn.skipped", slog.String("reason", "client not ready"))
		notice := notReadyNotice()
		return Outcome{Notice: &notice}
	}

	messages, stats := c.window.Apply(c.store.Transcript())
	c.logger.Debug("turn.start",
		slog.Int("messages", len(messages)),
		slog.Int("skipped", stats.Skipped),
		slog.Int("tokens", stats.Tokens),
	)
	if stats.OverBudget {
		c.logger.Warn("turn.window_over_budget", slog.Int("tokens", stats.Tokens))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := c.client.Chat(ctx, llm.ChatRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		permanent := llm.IsPermanent(err)
		c.logger.Error("turn.failed",
			slog.String("error", err.Error()),
			slog.Bool("permanent", permanent),
			slog.Duration("elapsed", time.Since(started)),
		)
		notice := requestNotice(err, permanent)
		return Outcome{Notice: &notice, Called: true}
	}

	c.logger.Info("turn.complete",
		slog.String("model", resp.Model),
		slog.String("finish_reason", resp.FinishReason),
		slog.Duration("elapsed", time.Since(started)),
	)
	reply := llm.Message{Role: llm.RoleAssistant, Content: resp.Content}
	return Outcome{Reply: &reply, Called: true}
}

// Apply records out: a reply is appended to the transcript, and a permanent
// failure marks the session not ready.
func (c *Controller) Apply(out Outcome) {
	if out.Reply != nil {
		c.store.Append(*out.Reply)
		return
	}
	if out.Notice != nil && out.Notice.Kind == NoticeAuthFailed {
		c.store.SetReady(false)
		c.logger.Warn("session.not_ready", slog.String("reason", "permanent request failure"))
	}
}

// HandleUserTurn runs a complete turn for input, rendering the user message
// before the completion call and the reply or notice after it.
func (c *Controller) HandleUserTurn(ctx context.Context, input string, r Renderer) Outcome {
	if r == nil {
		r = discardRenderer{}
	}
	r.RenderMessage(c.Submit(input))

	out := c.Request(ctx)
	c.Apply(out)
	if out.Reply != nil {
		r.RenderMessage(*out.Reply)
	} else if out.Notice != nil {
		r.RenderNotice(*out.Notice)
	}
	return out
}

type discardRenderer struct{}

func (discardRenderer) RenderMessage(llm.Message) {}
func (discardRenderer) RenderNotice(Notice)       {}
