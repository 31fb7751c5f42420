package config

import (
	"github.com/saoki0913/career-compass-retrieval/internal/llmgateway"
)

// ToGatewayConfig converts the YAML-facing LLMConfig into the
// llmgateway.Config the gateway actually runs on, starting from
// llmgateway.DefaultConfig() so an omitted feature_models entry keeps the
// gateway's own routing rather than silently dropping to ModelClaudeSonnet.
func (l LLMConfig) ToGatewayConfig() llmgateway.Config {
	cfg := llmgateway.DefaultConfig()

	cfg.AnthropicAPIKey = l.AnthropicAPIKey
	cfg.OpenAIAPIKey = l.OpenAIAPIKey

	if l.ClaudeModel != "" {
		cfg.ClaudeModel = l.ClaudeModel
	}
	if l.ClaudeHaikuModel != "" {
		cfg.ClaudeHaikuModel = l.ClaudeHaikuModel
	}
	if l.OpenAIModel != "" {
		cfg.OpenAIModel = l.OpenAIModel
	}
	if l.LLMTimeout != 0 {
		cfg.LLMTimeout = l.LLMTimeout
	}
	if l.RAGTimeout != 0 {
		cfg.RAGTimeout = l.RAGTimeout
	}

	for feature, model := range l.FeatureModels {
		cfg.Models[llmgateway.Feature(feature)] = llmgateway.Model(model)
	}

	return cfg
}
