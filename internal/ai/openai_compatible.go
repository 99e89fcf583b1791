package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrEmptyInput   = errors.New("llm input is empty")
	ErrEmptyChoices = errors.New("empty llm choices")
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) ChatMessage { return ChatMessage{Role: "system", Content: content} }
func UserMessage(content string) ChatMessage   { return ChatMessage{Role: "user", Content: content} }

// ChatConfig addresses either an OpenAI-compatible endpoint (BaseURL + Model)
// or an Azure OpenAI deployment (Azure=true, Model is the deployment name).
type ChatConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Azure      bool
	APIVersion string
}

type completionOptions struct {
	temperature *float64
	maxTokens   int
	jsonMode    bool
}

type CompletionOption func(*completionOptions)

func WithTemperature(t float64) CompletionOption {
	return func(o *completionOptions) { o.temperature = &t }
}

func WithMaxTokens(n int) CompletionOption {
	return func(o *completionOptions) { o.maxTokens = n }
}

// WithJSONResponse asks the model for a single JSON object.
func WithJSONResponse() CompletionOption {
	return func(o *completionOptions) { o.jsonMode = true }
}

type OpenAICompatibleClient struct {
	httpClient *http.Client
}

func NewOpenAICompatibleClient() *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// NewOpenAICompatibleClientWithHTTP is used by tests and callers that share a transport.
func NewOpenAICompatibleClientWithHTTP(hc *http.Client) *OpenAICompatibleClient {
	if hc == nil {
		return NewOpenAICompatibleClient()
	}
	return &OpenAICompatibleClient{httpClient: hc}
}

func (c *OpenAICompatibleClient) Complete(ctx context.Context, cfg ChatConfig, messages []ChatMessage, opts ...CompletionOption) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyInput
	}
	reqBody := chatRequestBody(cfg, messages, false, opts)

	raw, err := c.postJSON(ctx, cfg, endpointURL(cfg, "chat/completions"), reqBody, "llm")
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse llm json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyChoices
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *OpenAICompatibleClient) StreamComplete(
	ctx context.Context,
	cfg ChatConfig,
	messages []ChatMessage,
	onChunk func(chunk string) error,
	opts ...CompletionOption,
) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyInput
	}
	reqBody := chatRequestBody(cfg, messages, true, opts)
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal llm stream request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL(cfg, "chat/completions"), bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build llm stream request failed: %w", err)
	}
	setAuthHeaders(req, cfg)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm stream status %d: %s", resp.StatusCode, string(raw))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var full strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		text := chunk.Choices[0].Delta.Content

		full.WriteString(text)
		if err := onChunk(text); err != nil {
			return "", err
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan llm stream failed: %w", err)
	}
	return full.String(), nil
}

func chatRequestBody(cfg ChatConfig, messages []ChatMessage, stream bool, opts []CompletionOption) map[string]interface{} {
	o := completionOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	reqBody := map[string]interface{}{
		"messages": messages,
		"stream":   stream,
	}
	if !cfg.Azure {
		reqBody["model"] = cfg.Model
	}
	if o.temperature != nil {
		reqBody["temperature"] = *o.temperature
	}
	if o.maxTokens > 0 {
		reqBody["max_tokens"] = o.maxTokens
	}
	if o.jsonMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}
	return reqBody
}

// endpointURL builds "{base}/{op}" or, in Azure mode,
// "{base}/openai/deployments/{model}/{op}?api-version=".
func endpointURL(cfg ChatConfig, op string) string {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !cfg.Azure {
		return base + "/" + op
	}
	u := base + "/openai/deployments/" + url.PathEscape(cfg.Model) + "/" + op
	if cfg.APIVersion != "" {
		u += "?api-version=" + url.QueryEscape(cfg.APIVersion)
	}
	return u
}

func setAuthHeaders(req *http.Request, cfg ChatConfig) {
	req.Header.Set("Content-Type", "application/json")
	if cfg.Azure {
		req.Header.Set("api-key", cfg.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
}

func (c *OpenAICompatibleClient) postJSON(ctx context.Context, cfg ChatConfig, endpoint string, body interface{}, label string) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request failed: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build %s request failed: %w", label, err)
	}
	setAuthHeaders(req, cfg)

	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", label, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response failed: %w", label, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s response status %d: %s", label, resp.StatusCode, string(raw))
	}
	return raw, nil
}
