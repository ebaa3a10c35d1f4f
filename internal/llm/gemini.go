package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

type GeminiConfig struct {
	BaseURL    string
	Token      string
	Model      string
	HTTPClient *http.Client
}

type GeminiClient struct {
	baseURL    string
	token      string
	model      string
	httpClient *http.Client
}

func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("gemini base url is required")
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("gemini token is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("gemini model is required")
	}
	return &GeminiClient{
		baseURL:    baseURL,
		token:      token,
		model:      model,
		httpClient: httpClientOrDefault(cfg.HTTPClient),
	}, nil
}

func (c *GeminiClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	post, err := c.post(resolveModel(c.model, req.Model), false)
	if err != nil {
		return ChatResponse{}, err
	}
	var resp geminiGenerateContentResponse
	if err := post.decode(ctx, buildGeminiRequest(req.Messages), &resp); err != nil {
		return ChatResponse{}, err
	}
	if resp.Error != nil {
		return ChatResponse{}, fmt.Errorf("gemini error: %s", resp.Error.Message)
	}
	if len(resp.Candidates) == 0 {
		return ChatResponse{}, errors.New("gemini response has no candidates")
	}
	return ChatResponse{
		Content:      flattenGeminiContent(resp.Candidates[0].Content),
		Model:        resp.ModelVersion,
		FinishReason: resp.Candidates[0].FinishReason,
	}, nil
}

func (c *GeminiClient) ChatStream(ctx context.Context, req ChatRequest, handle StreamHandler) (ChatResponse, error) {
	post, err := c.post(resolveModel(c.model, req.Model), true)
	if err != nil {
		return ChatResponse{}, err
	}
	httpResp, err := post.send(ctx, buildGeminiRequest(req.Messages))
	if err != nil {
		return ChatResponse{}, err
	}
	defer httpResp.Body.Close()

	collector := &streamCollector{handle: handle}
	err = scanEvents(httpResp.Body, true, func(data string) (bool, error) {
		if !strings.HasPrefix(data, "{") {
			return false, nil
		}
		var chunk geminiGenerateContentResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return false, fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return false, fmt.Errorf("gemini error: %s", chunk.Error.Message)
		}
		if chunk.ModelVersion != "" {
			collector.model = chunk.ModelVersion
		}
		if len(chunk.Candidates) == 0 {
			return false, nil
		}
		if chunk.Candidates[0].FinishReason != "" {
			collector.finishReason = chunk.Candidates[0].FinishReason
		}
		return false, collector.add(flattenGeminiContent(chunk.Candidates[0].Content))
	})
	if err != nil {
		return ChatResponse{}, err
	}
	return collector.response(), nil
}

func (c *GeminiClient) post(model string, stream bool) (jsonPost, error) {
	endpoint, err := buildGeminiEndpoint(c.baseURL, model, stream, c.token)
	if err != nil {
		return jsonPost{}, err
	}
	return jsonPost{
		client:   c.httpClient,
		provider: "gemini",
		endpoint: endpoint,
		stream:   stream,
		readErr:  readGeminiError,
	}, nil
}

func buildGeminiEndpoint(baseURL, model string, stream bool, token string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", errors.New("gemini model is required")
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	apiPath := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(apiPath, "/v1") && !strings.HasSuffix(apiPath, "/v1beta") {
		apiPath = path.Join(apiPath, "/v1beta")
	}
	verb := "generateContent"
	if stream {
		verb = "streamGenerateContent"
	}
	u.Path = path.Join(apiPath, "models", fmt.Sprintf("%s:%s", model, verb))
	query := u.Query()
	query.Set("key", token)
	if stream {
		query.Set("alt", "sse")
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func readGeminiError(body io.Reader, status int) error {
	var resp geminiGenerateContentResponse
	_ = json.NewDecoder(body).Decode(&resp)
	statusErr := &StatusError{Provider: "gemini", StatusCode: status}
	if resp.Error != nil {
		statusErr.Message = resp.Error.Message
	}
	return statusErr
}

// buildGeminiRequest maps chat roles onto Gemini's: the leading system message
// becomes the system instruction and "assistant" turns become "model".
func buildGeminiRequest(messages []Message) geminiGenerateContentRequest {
	var req geminiGenerateContentRequest
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		req.SystemInstruction = &geminiSystemInstruction{
			Parts: []geminiPart{{Text: messages[0].Content}},
		}
		messages = messages[1:]
	}
	req.Contents = make([]geminiContent, 0, len(messages))
	for _, message := range messages {
		role := message.Role
		if role == RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: message.Content}},
		})
	}
	return req
}

func flattenGeminiContent(content geminiContent) string {
	var builder strings.Builder
	for _, part := range content.Parts {
		builder.WriteString(part.Text)
	}
	return builder.String()
}

type geminiGenerateContentRequest struct {
	Contents          []geminiContent          `json:"contents"`
	SystemInstruction *geminiSystemInstruction `json:"systemInstruction,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates   []geminiCandidate `json:"candidates"`
	ModelVersion string            `json:"modelVersion,omitempty"`
	Error        *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

type geminiError struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}
