package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicVersion   = "2023-06-01"
	defaultAnthropicMaxTokens = 1024
)

type AnthropicConfig struct {
	BaseURL    string
	Token      string
	Model      string
	Version    string
	MaxTokens  int
	HTTPClient *http.Client
}

type AnthropicClient struct {
	baseURL    string
	token      string
	model      string
	version    string
	maxTokens  int
	httpClient *http.Client
}

func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("anthropic base url is required")
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("anthropic token is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("anthropic model is required")
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = defaultAnthropicVersion
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicClient{
		baseURL:    baseURL,
		token:      token,
		model:      model,
		version:    version,
		maxTokens:  maxTokens,
		httpClient: httpClientOrDefault(cfg.HTTPClient),
	}, nil
}

func (c *AnthropicClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var resp anthropicChatResponse
	if err := c.post(false).decode(ctx, c.payload(req, false), &resp); err != nil {
		return ChatResponse{}, err
	}
	if resp.Error != nil {
		return ChatResponse{}, fmt.Errorf("anthropic error: %s", resp.Error.Message)
	}
	return ChatResponse{
		Content:      flattenAnthropicContent(resp.Content),
		Model:        resp.Model,
		FinishReason: resp.StopReason,
	}, nil
}

func (c *AnthropicClient) ChatStream(ctx context.Context, req ChatRequest, handle StreamHandler) (ChatResponse, error) {
	httpResp, err := c.post(true).send(ctx, c.payload(req, true))
	if err != nil {
		return ChatResponse{}, err
	}
	defer httpResp.Body.Close()

	collector := &streamCollector{handle: handle}
	err = scanEvents(httpResp.Body, false, func(data string) (bool, error) {
		var event anthropicStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return false, fmt.Errorf("decode stream chunk: %w", err)
		}
		switch event.Type {
		case "error":
			if event.Error != nil {
				return false, fmt.Errorf("anthropic error: %s", event.Error.Message)
			}
		case "message_start":
			if event.Message != nil && event.Message.Model != "" {
				collector.model = event.Message.Model
			}
		case "message_delta":
			if event.StopReason != "" {
				collector.finishReason = event.StopReason
			}
		case "content_block_delta":
			if event.Delta != nil {
				return false, collector.add(event.Delta.Text)
			}
		case "message_stop":
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return ChatResponse{}, err
	}
	return collector.response(), nil
}

func (c *AnthropicClient) payload(req ChatRequest, stream bool) anthropicChatRequest {
	messages, system := splitAnthropicMessages(req.Messages)
	return anthropicChatRequest{
		Model:     resolveModel(c.model, req.Model),
		Messages:  messages,
		System:    system,
		MaxTokens: c.maxTokens,
		Stream:    stream,
	}
}

func (c *AnthropicClient) post(stream bool) jsonPost {
	return jsonPost{
		client:   c.httpClient,
		provider: "anthropic",
		endpoint: buildAnthropicEndpoint(c.baseURL),
		stream:   stream,
		edit: func(_ context.Context, req *http.Request) error {
			req.Header.Set("x-api-key", c.token)
			req.Header.Set("anthropic-version", c.version)
			return nil
		},
		readErr: readAnthropicError,
	}
}

func buildAnthropicEndpoint(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/messages"
	}
	return base + "/v1/messages"
}

func readAnthropicError(body io.Reader, status int) error {
	var resp anthropicChatResponse
	_ = json.NewDecoder(body).Decode(&resp)
	statusErr := &StatusError{Provider: "anthropic", StatusCode: status}
	if resp.Error != nil {
		statusErr.Message = resp.Error.Message
	}
	return statusErr
}

// splitAnthropicMessages lifts a leading system message into the top-level
// system field, which is where the messages API expects it.
func splitAnthropicMessages(messages []Message) ([]Message, string) {
	if len(messages) == 0 || messages[0].Role != RoleSystem {
		return messages, ""
	}
	return messages[1:], messages[0].Content
}

func flattenAnthropicContent(blocks []anthropicContent) string {
	var builder strings.Builder
	for _, block := range blocks {
		if block.Type != "text" {
			continue
		}
		builder.WriteString(block.Text)
	}
	return builder.String()
}

type anthropicChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens"`
	Stream    bool      `json:"stream,omitempty"`
}

type anthropicChatResponse struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Error      *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type anthropicStreamEvent struct {
	Type       string          `json:"type"`
	Message    *anthropicEvent `json:"message,omitempty"`
	Delta      *anthropicDelta `json:"delta,omitempty"`
	StopReason string          `json:"stop_reason,omitempty"`
	Error      *anthropicError `json:"error,omitempty"`
}

type anthropicEvent struct {
	Model string `json:"model"`
}

type anthropicDelta struct {
	Text string `json:"text"`
}
