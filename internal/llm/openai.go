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

type OpenAIConfig struct {
	BaseURL    string
	Token      string
	Model      string
	HTTPClient *http.Client
}

// OpenAIClient speaks the chat completions wire format. Azure OpenAI
// deployments use the same client with a different endpoint and auth.
type OpenAIClient struct {
	provider   string
	model      string
	httpClient *http.Client
	endpoint   func(model string) string
	authorize  requestEditor
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("openai base url is required")
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("openai token is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("openai model is required")
	}
	return &OpenAIClient{
		provider:   "openai",
		model:      model,
		httpClient: httpClientOrDefault(cfg.HTTPClient),
		endpoint: func(string) string {
			return buildChatEndpoint(baseURL)
		},
		authorize: func(_ context.Context, req *http.Request) error {
			req.Header.Set("Authorization", "Bearer "+token)
			return nil
		},
	}, nil
}

func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	model := resolveModel(c.model, req.Model)
	payload := openAIChatRequest{
		Model:    model,
		Messages: req.Messages,
	}
	var resp openAIChatResponse
	if err := c.post(model, false).decode(ctx, payload, &resp); err != nil {
		return ChatResponse{}, err
	}
	if resp.Error != nil {
		return ChatResponse{}, fmt.Errorf("%s error: %s", c.provider, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("%s response has no choices", c.provider)
	}
	return ChatResponse{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}

func (c *OpenAIClient) ChatStream(ctx context.Context, req ChatRequest, handle StreamHandler) (ChatResponse, error) {
	model := resolveModel(c.model, req.Model)
	payload := openAIChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   true,
	}
	httpResp, err := c.post(model, true).send(ctx, payload)
	if err != nil {
		return ChatResponse{}, err
	}
	defer httpResp.Body.Close()

	collector := &streamCollector{handle: handle}
	err = scanEvents(httpResp.Body, false, func(data string) (bool, error) {
		var chunk openAIChatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return false, fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return false, fmt.Errorf("%s error: %s", c.provider, chunk.Error.Message)
		}
		if chunk.Model != "" {
			collector.model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			return false, nil
		}
		if chunk.Choices[0].FinishReason != "" {
			collector.finishReason = chunk.Choices[0].FinishReason
		}
		return false, collector.add(chunk.Choices[0].Delta.Content)
	})
	if err != nil {
		return ChatResponse{}, err
	}
	return collector.response(), nil
}

func (c *OpenAIClient) post(model string, stream bool) jsonPost {
	provider := c.provider
	return jsonPost{
		client:   c.httpClient,
		provider: provider,
		endpoint: c.endpoint(model),
		stream:   stream,
		edit:     c.authorize,
		readErr: func(body io.Reader, status int) error {
			return readOpenAIError(provider, body, status)
		},
	}
}

func buildChatEndpoint(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

func readOpenAIError(provider string, body io.Reader, status int) error {
	var resp openAIChatResponse
	_ = json.NewDecoder(body).Decode(&resp)
	statusErr := &StatusError{Provider: provider, StatusCode: status}
	if resp.Error != nil {
		statusErr.Message = resp.Error.Message
	}
	return statusErr
}

func httpClientOrDefault(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{}
	}
	return client
}

type openAIChatRequest struct {
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		Delta        Message `json:"delta"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
