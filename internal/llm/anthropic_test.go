package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "token" {
			t.Fatalf("missing api key header")
		}
		var req anthropicChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "claude-test" {
			t.Fatalf("unexpected model: %s", req.Model)
		}
		resp := anthropicChatResponse{
			Model: "claude-test",
			Content: []anthropicContent{
				{Type: "text", Text: "hello"},
			},
			StopReason: "end_turn",
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewAnthropicClient(AnthropicConfig{
		BaseURL: server.URL,
		Token:   "token",
		Model:   "claude-test",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "hello" {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if resp.FinishReason != "end_turn" {
		t.Fatalf("unexpected finish reason: %s", resp.FinishReason)
	}
}

func TestAnthropicChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req anthropicChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.Stream {
			t.Fatalf("expected stream request")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		chunks := []string{
			`data: {"type":"message_start","message":{"model":"claude-test"}}` + "\n\n",
			`data: {"type":"content_block_delta","delta":{"text":"he"}}` + "\n\n",
			`data: {"type":"content_block_delta","delta":{"text":"llo"}}` + "\n\n",
			`data: {"type":"message_delta","stop_reason":"end_turn"}` + "\n\n",
		}
		for _, chunk := range chunks {
			_, _ = w.Write([]byte(chunk))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	client, err := NewAnthropicClient(AnthropicConfig{
		BaseURL: server.URL,
		Token:   "token",
		Model:   "claude-test",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var streamed strings.Builder
	resp, err := client.ChatStream(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(delta string) error {
		streamed.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if streamed.String() != "hello" {
		t.Fatalf("unexpected stream content: %s", streamed.String())
	}
	if resp.Content != "hello" {
		t.Fatalf("unexpected response content: %s", resp.Content)
	}
	if resp.FinishReason != "end_turn" {
		t.Fatalf("unexpected finish reason: %s", resp.FinishReason)
	}
	if resp.Model != "claude-test" {
		t.Fatalf("unexpected model: %s", resp.Model)
	}
}

func TestAnthropicChatSplitsSystemMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "be brief" {
			t.Fatalf("unexpected system: %q", req.System)
		}
		if len(req.Messages) != 3 {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		wantRoles := []string{RoleUser, RoleAssistant, RoleUser}
		for i, msg := range req.Messages {
			if msg.Role != wantRoles[i] {
				t.Fatalf("message %d role = %s, want %s", i, msg.Role, wantRoles[i])
			}
		}
		if req.Messages[2].Content != "and 3+3?" {
			t.Fatalf("unexpected last message: %q", req.Messages[2].Content)
		}
		_ = json.NewEncoder(w).Encode(anthropicChatResponse{
			Content: []anthropicContent{{Type: "text", Text: "6"}},
		})
	}))
	defer server.Close()

	client, err := NewAnthropicClient(AnthropicConfig{
		BaseURL: server.URL,
		Token:   "token",
		Model:   "claude-test",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "2+2?"},
			{Role: RoleAssistant, Content: "4"},
			{Role: RoleUser, Content: "and 3+3?"},
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "6" {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
}

func TestAnthropicChatStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(AnthropicConfig{
		BaseURL: server.URL,
		Token:   "token",
		Model:   "claude-test",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.Provider != "anthropic" || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
	if statusErr.Message != "invalid x-api-key" {
		t.Fatalf("unexpected message: %q", statusErr.Message)
	}
	if !IsPermanent(err) {
		t.Fatalf("expected 401 to be permanent")
	}
}

func TestAnthropicStreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(AnthropicConfig{
		BaseURL: server.URL,
		Token:   "token",
		Model:   "claude-test",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ChatStream(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if IsPermanent(err) {
		t.Fatalf("expected 429 to be retryable")
	}
}
