package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// rawCaller is the narrow surface each provider implements: send one
// (system, user) turn and get back the raw text the model produced, with no
// JSON interpretation. parseJSONResponse handles turning that text into
// structured data one layer up.
type rawCaller interface {
	callRaw(ctx context.Context, req Request, model string) (string, error)
}

// classifyError maps a provider error string to an ErrorKind and a
// Japanese-log-facing detail, grounded on _classify_anthropic_error /
// _classify_openai_error: both inspect the lowercased error text for the
// same small set of substrings rather than parsing structured error codes,
// since both SDKs' exception messages are the most stable cross-version
// signal available.
func classifyError(provider Provider, err error) (ErrorKind, string) {
	s := strings.ToLower(err.Error())
	providerJA := "Anthropic"
	if provider == ProviderOpenAI {
		providerJA = "OpenAI"
	}

	switch {
	case provider == ProviderAnthropic && (strings.Contains(s, "credit balance is too low") || strings.Contains(s, "billing")):
		return ErrorKindBilling, providerJA + "のクレジット残高が不足しています"
	case provider == ProviderOpenAI && (strings.Contains(s, "insufficient_quota") || strings.Contains(s, "exceeded your current quota")):
		return ErrorKindBilling, providerJA + "のクォータを超えました"
	case strings.Contains(s, "rate limit") || strings.Contains(s, "429"):
		return ErrorKindRateLimit, providerJA + "のレート制限を超えました"
	case strings.Contains(s, "invalid api key") || strings.Contains(s, "authentication") || strings.Contains(s, "401"):
		return ErrorKindInvalid, providerJA + "のAPIキーが無効です"
	case strings.Contains(s, "connection") || strings.Contains(s, "timeout") || strings.Contains(s, "network"):
		return ErrorKindNetwork, fmt.Sprintf("ネットワークエラー: %v", err)
	default:
		return ErrorKindUnknown, err.Error()
	}
}

// AnthropicProvider calls the Claude Messages API directly over HTTP: the
// examples pack carries no Go Anthropic SDK, so this talks to the documented
// REST endpoint the same way the teacher's mlx_reranker.go talks to its
// local inference server.
type AnthropicProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		APIKey:  apiKey,
		BaseURL: "https://api.anthropic.com/v1/messages",
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *AnthropicProvider) callRaw(ctx context.Context, req Request, model string) (string, error) {
	payload, err := json.Marshal(anthropicRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: req.UserMessage}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("connection: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading anthropic response: %w", err)
	}

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decoding anthropic response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s: %s", out.Error.Type, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, string(body))
	}
	if len(out.Content) == 0 {
		return "", nil
	}
	return out.Content[0].Text, nil
}

// OpenAIProvider calls the Chat Completions API directly over HTTP, for the
// same reason AnthropicProvider does: no Go OpenAI SDK appears anywhere in
// the examples pack.
type OpenAIProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1/chat/completions",
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string         `json:"type"`
	JSONSchema map[string]any `json:"json_schema,omitempty"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    *float64              `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenAIProvider) callRaw(ctx context.Context, req Request, model string) (string, error) {
	body := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserMessage},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: &req.Temperature,
	}
	if req.ResponseFormat == ResponseFormatJSONSchema && req.JSONSchema != nil {
		body.ResponseFormat = &openAIResponseFormat{Type: "json_schema", JSONSchema: req.JSONSchema}
	} else if req.ResponseFormat == ResponseFormatJSONObject {
		body.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("connection: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading openai response: %w", err)
	}

	var out openAIResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decoding openai response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s: %s", out.Error.Type, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
