package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete retrievalctl configuration: a registry group, a
// retrieval-pipeline group, an LLM-gateway group, and a storage/embedding
// group, loaded from layered YAML + env overrides (spec §6).
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Registry  RegistryConfig  `yaml:"registry" json:"registry"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Store     StoreConfig     `yaml:"store" json:"store"`
}

// RegistryConfig configures company-mapping resolution (C1).
type RegistryConfig struct {
	// MappingPath is the company_mapping.json path passed to registry.New.
	MappingPath string `yaml:"mapping_path" json:"mapping_path"`
	// Watch enables fsnotify-driven hot reload on mapping changes.
	Watch bool `yaml:"watch" json:"watch"`
}

// RetrievalConfig configures the hybrid search pipeline (C8/C9): fusion
// weights, MMR, rerank gating, and query-expansion fan-out limits.
type RetrievalConfig struct {
	SemanticWeight   float64 `yaml:"semantic_weight" json:"semantic_weight"`
	KeywordWeight    float64 `yaml:"keyword_weight" json:"keyword_weight"`
	RerankThreshold  float64 `yaml:"rerank_threshold" json:"rerank_threshold"`
	MMRLambda        float64 `yaml:"mmr_lambda" json:"mmr_lambda"`
	UseBM25          bool    `yaml:"use_bm25" json:"use_bm25"`
	UseMMR           bool    `yaml:"use_mmr" json:"use_mmr"`
	ExpandQueries    bool    `yaml:"expand_queries" json:"expand_queries"`
	UseHyDE          bool    `yaml:"use_hyde" json:"use_hyde"`
	Rerank           bool    `yaml:"rerank" json:"rerank"`
	FetchK           int     `yaml:"fetch_k" json:"fetch_k"`
	MaxQueries       int     `yaml:"max_queries" json:"max_queries"`
	MaxTotalQueries  int     `yaml:"max_total_queries" json:"max_total_queries"`
	RerankCandidates int     `yaml:"rerank_candidates" json:"rerank_candidates"`

	// ExpansionCacheSize/ExpansionCacheTTL bound expand.Expander's cache.
	ExpansionCacheSize int           `yaml:"expansion_cache_size" json:"expansion_cache_size"`
	ExpansionCacheTTL  time.Duration `yaml:"expansion_cache_ttl" json:"expansion_cache_ttl"`

	// ShortQueryThreshold/ExpansionMinChars/ExpansionMaxChars/HydeMaxChars
	// gate when expansion and HyDE run at all (spec §4.8).
	ShortQueryThreshold int `yaml:"short_query_threshold" json:"short_query_threshold"`
	ExpansionMinChars   int `yaml:"expansion_min_chars" json:"expansion_min_chars"`
	ExpansionMaxChars   int `yaml:"expansion_max_chars" json:"expansion_max_chars"`
	HydeMaxChars        int `yaml:"hyde_max_chars" json:"hyde_max_chars"`
}

// LLMConfig configures the LLM gateway (C11): provider credentials, model
// aliases, and per-feature model overrides.
type LLMConfig struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key" json:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key" json:"openai_api_key"`

	ClaudeModel      string `yaml:"claude_model" json:"claude_model"`
	ClaudeHaikuModel string `yaml:"claude_haiku_model" json:"claude_haiku_model"`
	OpenAIModel      string `yaml:"openai_model" json:"openai_model"`

	// FeatureModels overrides the model alias ("claude-sonnet", "claude-haiku",
	// "openai") used for a given llmgateway.Feature; unlisted features keep
	// llmgateway.DefaultConfig's routing.
	FeatureModels map[string]string `yaml:"feature_models" json:"feature_models"`

	LLMTimeout time.Duration `yaml:"llm_timeout" json:"llm_timeout"`
	RAGTimeout time.Duration `yaml:"rag_timeout" json:"rag_timeout"`
}

// StoreConfig configures the vector store, keyword index, and embedding
// provider (C3/C4) that back a company's indexed chunks.
type StoreConfig struct {
	// DataRoot is the base directory under which each company gets its own
	// vector/keyword index files.
	DataRoot string `yaml:"data_root" json:"data_root"`

	BM25Backend string  `yaml:"bm25_backend" json:"bm25_backend"`
	BM25K1      float64 `yaml:"bm25_k1" json:"bm25_k1"`
	BM25B       float64 `yaml:"bm25_b" json:"bm25_b"`

	VectorDimensions     int    `yaml:"vector_dimensions" json:"vector_dimensions"`
	VectorQuantization   string `yaml:"vector_quantization" json:"vector_quantization"`
	VectorMetric         string `yaml:"vector_metric" json:"vector_metric"`
	VectorM              int    `yaml:"vector_m" json:"vector_m"`
	VectorEfConstruction int    `yaml:"vector_ef_construction" json:"vector_ef_construction"`
	VectorEfSearch       int    `yaml:"vector_ef_search" json:"vector_ef_search"`

	// EmbeddingProvider selects ollama/mlx/static (internal/embed.ProviderType);
	// empty triggers internal/embed's own auto-detection.
	EmbeddingProvider string `yaml:"embedding_provider" json:"embedding_provider"`
	EmbeddingModel    string `yaml:"embedding_model" json:"embedding_model"`
	EmbeddingBatch    int    `yaml:"embedding_batch_size" json:"embedding_batch_size"`

	OllamaHost  string `yaml:"ollama_host" json:"ollama_host"`
	MLXEndpoint string `yaml:"mlx_endpoint" json:"mlx_endpoint"`
	MLXModel    string `yaml:"mlx_model" json:"mlx_model"`
}

// NewConfig returns a Config seeded with the same defaults each component's
// own DefaultConfig()/Default*Config() constructor uses, so a bare
// retrievalctl invocation with no YAML file behaves like the library
// defaults (spec §4.9, §4.8, gateway.DefaultConfig, BM25/vectorstore
// defaults).
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Registry: RegistryConfig{
			MappingPath: "company_mapping.json",
			Watch:       true,
		},
		Retrieval: RetrievalConfig{
			SemanticWeight:      0.6,
			KeywordWeight:       0.4,
			RerankThreshold:     0.7,
			MMRLambda:           0.5,
			UseBM25:             true,
			UseMMR:              true,
			ExpandQueries:       true,
			UseHyDE:             true,
			Rerank:              true,
			FetchK:              30,
			MaxQueries:          3,
			MaxTotalQueries:     4,
			RerankCandidates:    20,
			ExpansionCacheSize:  500,
			ExpansionCacheTTL:   7 * 24 * time.Hour,
			ShortQueryThreshold: 10,
			ExpansionMinChars:   5,
			ExpansionMaxChars:   1200,
			HydeMaxChars:        600,
		},
		LLM: LLMConfig{
			ClaudeModel:      "claude-sonnet-4-5-20250929",
			ClaudeHaikuModel: "claude-haiku-4-5-20251001",
			OpenAIModel:      "gpt-5-mini",
			FeatureModels:    map[string]string{},
			LLMTimeout:       120 * time.Second,
			RAGTimeout:       45 * time.Second,
		},
		Store: StoreConfig{
			DataRoot:             "data/companies",
			BM25Backend:          "sqlite",
			BM25K1:               1.2,
			BM25B:                0.75,
			VectorDimensions:     1024,
			VectorQuantization:   "f16",
			VectorMetric:         "cos",
			VectorM:              32,
			VectorEfConstruction: 128,
			VectorEfSearch:       64,
			EmbeddingProvider:    "",
			EmbeddingModel:       "",
			EmbeddingBatch:       32,
			OllamaHost:           "",
			MLXEndpoint:          "",
			MLXModel:             "",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following XDG Base Directory conventions:
//   - $XDG_CONFIG_HOME/retrievalctl/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/retrievalctl/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "retrievalctl", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "retrievalctl", "config.yaml")
	}
	return filepath.Join(home, ".config", "retrievalctl", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration from the specified directory, in order of
// increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/retrievalctl/config.yaml)
//  3. Project config (.retrievalctl.yaml in dir)
//  4. Environment variables (RETRIEVALCTL_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .retrievalctl.yaml or
// .retrievalctl.yml in dir.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".retrievalctl.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".retrievalctl.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Registry
	if other.Registry.MappingPath != "" {
		c.Registry.MappingPath = other.Registry.MappingPath
	}
	if other.Registry.Watch {
		c.Registry.Watch = other.Registry.Watch
	}

	// Retrieval
	if other.Retrieval.SemanticWeight != 0 {
		c.Retrieval.SemanticWeight = other.Retrieval.SemanticWeight
	}
	if other.Retrieval.KeywordWeight != 0 {
		c.Retrieval.KeywordWeight = other.Retrieval.KeywordWeight
	}
	if other.Retrieval.RerankThreshold != 0 {
		c.Retrieval.RerankThreshold = other.Retrieval.RerankThreshold
	}
	if other.Retrieval.MMRLambda != 0 {
		c.Retrieval.MMRLambda = other.Retrieval.MMRLambda
	}
	if other.Retrieval.FetchK != 0 {
		c.Retrieval.FetchK = other.Retrieval.FetchK
	}
	if other.Retrieval.MaxQueries != 0 {
		c.Retrieval.MaxQueries = other.Retrieval.MaxQueries
	}
	if other.Retrieval.MaxTotalQueries != 0 {
		c.Retrieval.MaxTotalQueries = other.Retrieval.MaxTotalQueries
	}
	if other.Retrieval.RerankCandidates != 0 {
		c.Retrieval.RerankCandidates = other.Retrieval.RerankCandidates
	}
	if other.Retrieval.ExpansionCacheSize != 0 {
		c.Retrieval.ExpansionCacheSize = other.Retrieval.ExpansionCacheSize
	}
	if other.Retrieval.ExpansionCacheTTL != 0 {
		c.Retrieval.ExpansionCacheTTL = other.Retrieval.ExpansionCacheTTL
	}
	if other.Retrieval.ShortQueryThreshold != 0 {
		c.Retrieval.ShortQueryThreshold = other.Retrieval.ShortQueryThreshold
	}
	if other.Retrieval.ExpansionMinChars != 0 {
		c.Retrieval.ExpansionMinChars = other.Retrieval.ExpansionMinChars
	}
	if other.Retrieval.ExpansionMaxChars != 0 {
		c.Retrieval.ExpansionMaxChars = other.Retrieval.ExpansionMaxChars
	}
	if other.Retrieval.HydeMaxChars != 0 {
		c.Retrieval.HydeMaxChars = other.Retrieval.HydeMaxChars
	}

	// LLM
	if other.LLM.AnthropicAPIKey != "" {
		c.LLM.AnthropicAPIKey = other.LLM.AnthropicAPIKey
	}
	if other.LLM.OpenAIAPIKey != "" {
		c.LLM.OpenAIAPIKey = other.LLM.OpenAIAPIKey
	}
	if other.LLM.ClaudeModel != "" {
		c.LLM.ClaudeModel = other.LLM.ClaudeModel
	}
	if other.LLM.ClaudeHaikuModel != "" {
		c.LLM.ClaudeHaikuModel = other.LLM.ClaudeHaikuModel
	}
	if other.LLM.OpenAIModel != "" {
		c.LLM.OpenAIModel = other.LLM.OpenAIModel
	}
	for feature, model := range other.LLM.FeatureModels {
		if c.LLM.FeatureModels == nil {
			c.LLM.FeatureModels = map[string]string{}
		}
		c.LLM.FeatureModels[feature] = model
	}
	if other.LLM.LLMTimeout != 0 {
		c.LLM.LLMTimeout = other.LLM.LLMTimeout
	}
	if other.LLM.RAGTimeout != 0 {
		c.LLM.RAGTimeout = other.LLM.RAGTimeout
	}

	// Store
	if other.Store.DataRoot != "" {
		c.Store.DataRoot = other.Store.DataRoot
	}
	if other.Store.BM25Backend != "" {
		c.Store.BM25Backend = other.Store.BM25Backend
	}
	if other.Store.BM25K1 != 0 {
		c.Store.BM25K1 = other.Store.BM25K1
	}
	if other.Store.BM25B != 0 {
		c.Store.BM25B = other.Store.BM25B
	}
	if other.Store.VectorDimensions != 0 {
		c.Store.VectorDimensions = other.Store.VectorDimensions
	}
	if other.Store.VectorQuantization != "" {
		c.Store.VectorQuantization = other.Store.VectorQuantization
	}
	if other.Store.VectorMetric != "" {
		c.Store.VectorMetric = other.Store.VectorMetric
	}
	if other.Store.VectorM != 0 {
		c.Store.VectorM = other.Store.VectorM
	}
	if other.Store.VectorEfConstruction != 0 {
		c.Store.VectorEfConstruction = other.Store.VectorEfConstruction
	}
	if other.Store.VectorEfSearch != 0 {
		c.Store.VectorEfSearch = other.Store.VectorEfSearch
	}
	if other.Store.EmbeddingProvider != "" {
		c.Store.EmbeddingProvider = other.Store.EmbeddingProvider
	}
	if other.Store.EmbeddingModel != "" {
		c.Store.EmbeddingModel = other.Store.EmbeddingModel
	}
	if other.Store.EmbeddingBatch != 0 {
		c.Store.EmbeddingBatch = other.Store.EmbeddingBatch
	}
	if other.Store.OllamaHost != "" {
		c.Store.OllamaHost = other.Store.OllamaHost
	}
	if other.Store.MLXEndpoint != "" {
		c.Store.MLXEndpoint = other.Store.MLXEndpoint
	}
	if other.Store.MLXModel != "" {
		c.Store.MLXModel = other.Store.MLXModel
	}
}

// applyEnvOverrides applies RETRIEVALCTL_* environment variable overrides,
// highest precedence.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RETRIEVALCTL_SEMANTIC_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Retrieval.SemanticWeight = w
		}
	}
	if v := os.Getenv("RETRIEVALCTL_KEYWORD_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Retrieval.KeywordWeight = w
		}
	}
	if v := os.Getenv("RETRIEVALCTL_RERANK_THRESHOLD"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Retrieval.RerankThreshold = w
		}
	}
	if v := os.Getenv("RETRIEVALCTL_FETCH_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Retrieval.FetchK = k
		}
	}

	if v := os.Getenv("RETRIEVALCTL_ANTHROPIC_API_KEY"); v != "" {
		c.LLM.AnthropicAPIKey = v
	}
	if v := os.Getenv("RETRIEVALCTL_OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAIAPIKey = v
	}

	if v := os.Getenv("RETRIEVALCTL_DATA_ROOT"); v != "" {
		c.Store.DataRoot = v
	}
	if v := os.Getenv("RETRIEVALCTL_BM25_BACKEND"); v != "" {
		c.Store.BM25Backend = v
	}
	if v := os.Getenv("RETRIEVALCTL_EMBEDDING_PROVIDER"); v != "" {
		c.Store.EmbeddingProvider = v
	}
	if v := os.Getenv("RETRIEVALCTL_EMBEDDING_MODEL"); v != "" {
		c.Store.EmbeddingModel = v
	}
	if v := os.Getenv("RETRIEVALCTL_OLLAMA_HOST"); v != "" {
		c.Store.OllamaHost = v
	}
	if v := os.Getenv("RETRIEVALCTL_MLX_ENDPOINT"); v != "" {
		c.Store.MLXEndpoint = v
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// FindProjectRoot finds the project root directory by walking up from
// startDir looking for a .git directory or a .retrievalctl.yaml/.yml file.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".retrievalctl.yaml")) ||
			fileExists(filepath.Join(currentDir, ".retrievalctl.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Retrieval.SemanticWeight < 0 || c.Retrieval.SemanticWeight > 1 {
		return fmt.Errorf("retrieval.semantic_weight must be between 0 and 1, got %f", c.Retrieval.SemanticWeight)
	}
	if c.Retrieval.KeywordWeight < 0 || c.Retrieval.KeywordWeight > 1 {
		return fmt.Errorf("retrieval.keyword_weight must be between 0 and 1, got %f", c.Retrieval.KeywordWeight)
	}
	if c.Retrieval.FetchK < 0 {
		return fmt.Errorf("retrieval.fetch_k must be non-negative, got %d", c.Retrieval.FetchK)
	}

	validBackends := map[string]bool{"sqlite": true, "bleve": true}
	if !validBackends[strings.ToLower(c.Store.BM25Backend)] {
		return fmt.Errorf("store.bm25_backend must be 'sqlite' or 'bleve', got %s", c.Store.BM25Backend)
	}

	if c.Store.EmbeddingProvider != "" {
		validProviders := map[string]bool{"ollama": true, "mlx": true, "static": true}
		if !validProviders[strings.ToLower(c.Store.EmbeddingProvider)] {
			return fmt.Errorf("store.embedding_provider must be 'ollama', 'mlx', 'static', or empty (auto-detect), got %s", c.Store.EmbeddingProvider)
		}
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
