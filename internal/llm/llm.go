// Package llm provides chat completion clients for hosted language-model
// providers behind a single Client interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ChatResponse holds the top-ranked completion returned by a provider.
type ChatResponse struct {
	Content      string
	Model        string
	FinishReason string
}

type StreamHandler func(delta string) error

type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest, handle StreamHandler) (ChatResponse, error)
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s request failed: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed with status %d", e.Provider, e.StatusCode)
}

// IsPermanent reports whether err means the session itself is unusable:
// rejected credentials or a missing deployment. A 400 is tied to the one
// request (content filter, context length) and is not permanent, nor are
// transport errors, throttling and server errors.
func IsPermanent(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch statusErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}
