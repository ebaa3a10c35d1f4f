package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// errorReader turns a non-2xx response body into an error.
type errorReader func(body io.Reader, status int) error

type requestEditor func(ctx context.Context, req *http.Request) error

type jsonPost struct {
	client   *http.Client
	provider string
	endpoint string
	stream   bool
	edit     requestEditor
	readErr  errorReader
}

// send posts payload as JSON and returns the response when the status is 2xx.
// The caller owns the returned body.
func (p jsonPost) send(ctx context.Context, payload any) (*http.Response, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if p.edit != nil {
		if err := p.edit(ctx, httpReq); err != nil {
			return nil, err
		}
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", p.provider, err)
	}
	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		defer httpResp.Body.Close()
		return nil, p.readErr(httpResp.Body, httpResp.StatusCode)
	}
	return httpResp, nil
}

// decode posts payload and decodes the JSON response into out.
func (p jsonPost) decode(ctx context.Context, payload, out any) error {
	httpResp, err := p.send(ctx, payload)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// scanEvents calls fn with the payload of every server-sent event line until
// the stream ends, fn returns done, or a "[DONE]" marker arrives. With
// bareJSON set, lines without a "data:" prefix are passed through as well.
func scanEvents(body io.Reader, bareJSON bool, fn func(data string) (done bool, err error)) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok && !bareJSON {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return nil
		}
		done, err := fn(data)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// streamCollector accumulates deltas and forwards them to the caller's handler.
type streamCollector struct {
	content      strings.Builder
	model        string
	finishReason string
	handle       StreamHandler
}

func (s *streamCollector) add(delta string) error {
	if delta == "" {
		return nil
	}
	s.content.WriteString(delta)
	if s.handle != nil {
		return s.handle(delta)
	}
	return nil
}

func (s *streamCollector) response() ChatResponse {
	return ChatResponse{
		Content:      s.content.String(),
		Model:        s.model,
		FinishReason: s.finishReason,
	}
}

func resolveModel(fallback, override string) string {
	if strings.TrimSpace(override) == "" {
		return fallback
	}
	return override
}
