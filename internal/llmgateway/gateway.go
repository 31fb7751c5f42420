package llmgateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goerrors "github.com/saoki0913/career-compass-retrieval/internal/errors"
)

// Config holds API credentials, concrete provider model names, and the
// feature->model routing table, grounded on original_source/app/config.py's
// model_* and *_timeout_seconds settings fields.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string

	ClaudeModel      string
	ClaudeHaikuModel string
	OpenAIModel      string

	// Models routes each Feature to a Model alias; unlisted features
	// default to ModelClaudeSonnet.
	Models map[Feature]Model

	LLMTimeout time.Duration
	RAGTimeout time.Duration
}

// DefaultConfig mirrors config.py's model_* defaults.
func DefaultConfig() Config {
	return Config{
		ClaudeModel:      "claude-sonnet-4-5-20250929",
		ClaudeHaikuModel: "claude-haiku-4-5-20251001",
		OpenAIModel:      "gpt-5-mini",
		Models: map[Feature]Model{
			FeatureESReview:          ModelClaudeSonnet,
			FeatureGakuchika:         ModelClaudeHaiku,
			FeatureMotivation:        ModelClaudeHaiku,
			FeatureSelectionSchedule: ModelClaudeHaiku,
			FeatureCompanyInfo:       ModelOpenAI,
			FeatureRAGQueryExpansion: ModelClaudeHaiku,
			FeatureRAGHyDE:           ModelClaudeSonnet,
			FeatureRAGRerank:         ModelClaudeSonnet,
			FeatureRAGClassify:       ModelClaudeHaiku,
		},
		LLMTimeout: 120 * time.Second,
		RAGTimeout: 45 * time.Second,
	}
}

// Gateway routes Call requests across providers, gated by a per-provider
// circuit breaker (reused from internal/errors, spec's ambient resilience
// stack) so a provider outage degrades to fast failures and a fallback
// attempt instead of hanging every caller on a dead upstream.
type Gateway struct {
	cfg              Config
	anthropic        rawCaller
	openai           rawCaller
	anthropicCircuit *goerrors.CircuitBreaker
	openaiCircuit    *goerrors.CircuitBreaker
}

// New builds a Gateway from Config, constructing an HTTP-backed provider for
// each API key that's set. A provider with no key stays nil; Call treats a
// nil provider the same as a missing key.
func New(cfg Config) *Gateway {
	g := &Gateway{
		cfg: cfg,
		anthropicCircuit: goerrors.NewCircuitBreaker("anthropic",
			goerrors.WithMaxFailures(3), goerrors.WithResetTimeout(5*time.Minute)),
		openaiCircuit: goerrors.NewCircuitBreaker("openai",
			goerrors.WithMaxFailures(3), goerrors.WithResetTimeout(5*time.Minute)),
	}
	if cfg.AnthropicAPIKey != "" {
		g.anthropic = NewAnthropicProvider(cfg.AnthropicAPIKey)
	}
	if cfg.OpenAIAPIKey != "" {
		g.openai = NewOpenAIProvider(cfg.OpenAIAPIKey)
	}
	return g
}

func (g *Gateway) callerFor(p Provider) rawCaller {
	if p == ProviderAnthropic {
		return g.anthropic
	}
	return g.openai
}

func (g *Gateway) circuitFor(p Provider) *goerrors.CircuitBreaker {
	if p == ProviderAnthropic {
		return g.anthropicCircuit
	}
	return g.openaiCircuit
}

func (g *Gateway) modelNameFor(model Model) string {
	switch model {
	case ModelClaudeSonnet:
		return g.cfg.ClaudeModel
	case ModelClaudeHaiku:
		return g.cfg.ClaudeHaikuModel
	default:
		return g.cfg.OpenAIModel
	}
}

// resolveModel applies req.Model > Config.Models[feature] > ModelClaudeSonnet,
// mirroring call_llm_with_error's "明示的指定 > 機能設定 > デフォルト".
func (g *Gateway) resolveModel(req Request) Model {
	if req.Model != "" {
		return req.Model
	}
	if m, ok := g.cfg.Models[req.Feature]; ok {
		return m
	}
	return ModelClaudeSonnet
}

const parseRetryInstruction = "必ず有効なJSONのみを出力してください。説明文やコードブロックは禁止です。文字列内の改行は\\nでエスケープしてください。"

// Call resolves a provider for req.Feature, invokes it, parses the result
// as JSON, and falls back to the other provider on a missing API key,
// billing/rate-limit error, or JSON parse failure (spec §4.11). It never
// panics and only returns an error as *CallError.
func (g *Gateway) Call(ctx context.Context, req Request) (*Result, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = 2000
	}
	model := g.resolveModel(req)
	provider := model.provider()

	if provider == ProviderAnthropic && g.anthropic == nil {
		if g.openai != nil && !req.DisableFallback {
			slog.Warn("anthropic api key missing, falling back to openai", "feature", req.Feature)
			model, provider = ModelOpenAI, ProviderOpenAI
		} else {
			return nil, newCallError(ErrorKindNoAPIKey, ProviderAnthropic, req.Feature, "ANTHROPIC_API_KEYとOPENAI_API_KEYの両方が未設定です")
		}
	} else if provider == ProviderOpenAI && g.openai == nil {
		if g.anthropic != nil && !req.DisableFallback {
			slog.Warn("openai api key missing, falling back to claude", "feature", req.Feature)
			model, provider = ModelClaudeSonnet, ProviderAnthropic
		} else {
			return nil, newCallError(ErrorKindNoAPIKey, ProviderOpenAI, req.Feature, "ANTHROPIC_API_KEYとOPENAI_API_KEYの両方が未設定です")
		}
	}

	raw, callErr := g.invoke(ctx, provider, req, model)
	if callErr != nil {
		return g.onCallFailure(ctx, provider, model, req, callErr)
	}

	data, ok := parseJSONResponse(raw)
	if ok {
		return &Result{Data: data}, nil
	}
	return g.onParseFailure(ctx, provider, model, req, raw)
}

// invoke runs one provider call through its circuit breaker, returning the
// raw text on success.
func (g *Gateway) invoke(ctx context.Context, provider Provider, req Request, model Model) (string, error) {
	caller := g.callerFor(provider)
	if caller == nil {
		return "", fmt.Errorf("no provider configured")
	}
	circuit := g.circuitFor(provider)
	if !circuit.Allow() {
		return "", goerrors.ErrCircuitOpen
	}

	raw, err := caller.callRaw(ctx, req, g.modelNameFor(model))
	if err != nil {
		circuit.RecordFailure()
		return "", err
	}
	circuit.RecordSuccess()
	return raw, nil
}

// onCallFailure classifies a transport/provider error and, for a
// billing/rate-limit failure or an open circuit, tries the other provider
// once before giving up - mirroring call_llm_with_error's except-block
// fallback.
func (g *Gateway) onCallFailure(ctx context.Context, provider Provider, model Model, req Request, err error) (*Result, error) {
	kind, detail := classifyError(provider, err)

	if (kind == ErrorKindBilling || kind == ErrorKindRateLimit || err == goerrors.ErrCircuitOpen) && !req.DisableFallback {
		fallbackProvider, fallbackModel, ok := g.otherProvider(provider)
		if ok {
			slog.Warn("provider failure, falling back", "provider", provider, "kind", kind, "feature", req.Feature)
			raw, fallbackErr := g.invoke(ctx, fallbackProvider, req, fallbackModel)
			if fallbackErr == nil {
				if data, ok := parseJSONResponse(raw); ok {
					return &Result{Data: data}, nil
				}
			}
		}
	}

	return nil, newCallError(kind, provider, req.Feature, detail)
}

// onParseFailure retries the same provider with a stricter instruction when
// req.RetryOnParse is set, then tries the other provider (unless
// req.DisableFallback is set or the other provider has no key) before
// giving up as a parse error - mirroring call_llm_with_error's combined
// retry-then-fallback behavior (the separate JSON-repair-via-LLM step is not
// reproduced; see DESIGN.md).
func (g *Gateway) onParseFailure(ctx context.Context, provider Provider, model Model, req Request, firstRaw string) (*Result, error) {
	if req.RetryOnParse {
		retryReq := req
		retryReq.SystemPrompt = req.SystemPrompt + "\n\n# JSON出力の厳守\n" + parseRetryInstruction
		raw, err := g.invoke(ctx, provider, retryReq, model)
		if err == nil {
			if data, ok := parseJSONResponse(raw); ok {
				return &Result{Data: data}, nil
			}
		}
	}

	if !req.DisableFallback {
		fallbackProvider, fallbackModel, ok := g.otherProvider(provider)
		if ok {
			raw, err := g.invoke(ctx, fallbackProvider, req, fallbackModel)
			if err == nil {
				if data, ok := parseJSONResponse(raw); ok {
					return &Result{Data: data}, nil
				}
			}
		}
	}

	return nil, newCallError(ErrorKindParse, provider, req.Feature, "空または解析不能なレスポンス")
}

func (g *Gateway) otherProvider(provider Provider) (Provider, Model, bool) {
	if provider == ProviderAnthropic {
		if g.openai == nil {
			return "", "", false
		}
		return ProviderOpenAI, ModelOpenAI, true
	}
	if g.anthropic == nil {
		return "", "", false
	}
	return ProviderAnthropic, ModelClaudeSonnet, true
}
