package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 0.6, cfg.Retrieval.SemanticWeight)
	assert.Equal(t, 0.4, cfg.Retrieval.KeywordWeight)
	assert.Equal(t, 0.7, cfg.Retrieval.RerankThreshold)
	assert.Equal(t, 0.5, cfg.Retrieval.MMRLambda)
	assert.True(t, cfg.Retrieval.UseBM25)
	assert.True(t, cfg.Retrieval.UseMMR)
	assert.Equal(t, 30, cfg.Retrieval.FetchK)
	assert.Equal(t, 3, cfg.Retrieval.MaxQueries)
	assert.Equal(t, 4, cfg.Retrieval.MaxTotalQueries)
	assert.Equal(t, 20, cfg.Retrieval.RerankCandidates)
	assert.Equal(t, 500, cfg.Retrieval.ExpansionCacheSize)
	assert.Equal(t, 7*24*time.Hour, cfg.Retrieval.ExpansionCacheTTL)

	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.LLM.ClaudeModel)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.LLM.ClaudeHaikuModel)
	assert.Equal(t, "gpt-5-mini", cfg.LLM.OpenAIModel)
	assert.Equal(t, 120*time.Second, cfg.LLM.LLMTimeout)
	assert.Equal(t, 45*time.Second, cfg.LLM.RAGTimeout)

	assert.Equal(t, "sqlite", cfg.Store.BM25Backend)
	assert.Equal(t, 1.2, cfg.Store.BM25K1)
	assert.Equal(t, 0.75, cfg.Store.BM25B)
	assert.Equal(t, 1024, cfg.Store.VectorDimensions)
	assert.Equal(t, "f16", cfg.Store.VectorQuantization)
	assert.Equal(t, "cos", cfg.Store.VectorMetric)
	assert.Equal(t, "", cfg.Store.EmbeddingProvider) // empty triggers auto-detection

	assert.Equal(t, "company_mapping.json", cfg.Registry.MappingPath)
	assert.True(t, cfg.Registry.Watch)
}

func TestConfig_VersionDefaultsToOne(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 1, cfg.Version)
}

func TestConfig_FusionWeightsSumToOne(t *testing.T) {
	cfg := NewConfig()
	sum := cfg.Retrieval.SemanticWeight + cfg.Retrieval.KeywordWeight
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 0.6, cfg.Retrieval.SemanticWeight)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
retrieval:
  semantic_weight: 0.5
  keyword_weight: 0.5
  fetch_k: 50
`
	err := os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Retrieval.SemanticWeight)
	assert.Equal(t, 0.5, cfg.Retrieval.KeywordWeight)
	assert.Equal(t, 50, cfg.Retrieval.FetchK)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
store:
  embedding_provider: static
`
	err := os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Store.EmbeddingProvider)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	tmpDir := t.TempDir()
	yamlContent := "version: 1\nstore:\n  embedding_provider: ollama\n"
	ymlContent := "version: 1\nstore:\n  embedding_provider: static\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yaml"), []byte(yamlContent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yml"), []byte(ymlContent), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Store.EmbeddingProvider)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := "version: 1\nretrieval:\n  fetch_k: [invalid yaml syntax\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yaml"), []byte(invalidContent), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := "version: 1\nretrieval:\n  fetch_k: \"not-a-number\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yaml"), []byte(invalidContent), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestFindProjectRoot_GitDirectory_ReturnsGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	gitDir := filepath.Join(tmpDir, ".git")
	nestedDir := filepath.Join(tmpDir, "src", "internal")
	require.NoError(t, os.Mkdir(gitDir, 0o755))
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))

	root, err := FindProjectRoot(nestedDir)

	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_ConfigFile_ReturnsConfigLocation(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "src", "internal")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yaml"), []byte("version: 1"), 0o644))

	root, err := FindProjectRoot(nestedDir)

	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_NoMarkers_ReturnsCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()

	root, err := FindProjectRoot(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestLoad_EnvVarOverridesProvider(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "version: 1\nstore:\n  embedding_provider: mlx\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yaml"), []byte(configContent), 0o644))
	t.Setenv("RETRIEVALCTL_EMBEDDING_PROVIDER", "static")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Store.EmbeddingProvider)
}

func TestLoad_EnvVarOverridesDataRoot(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("RETRIEVALCTL_DATA_ROOT", "/tmp/custom-companies")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-companies", cfg.Store.DataRoot)
}

func TestLoad_EnvVarOverridesFetchK(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "version: 1\nretrieval:\n  fetch_k: 40\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yaml"), []byte(configContent), 0o644))
	t.Setenv("RETRIEVALCTL_FETCH_K", "80")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Retrieval.FetchK)
}

func TestLoad_EnvVarOverridesFusionWeights(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "version: 1\nretrieval:\n  semantic_weight: 0.4\n  keyword_weight: 0.6\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".retrievalctl.yaml"), []byte(configContent), 0o644))
	t.Setenv("RETRIEVALCTL_SEMANTIC_WEIGHT", "0.5")
	t.Setenv("RETRIEVALCTL_KEYWORD_WEIGHT", "0.5")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Retrieval.SemanticWeight)
	assert.Equal(t, 0.5, cfg.Retrieval.KeywordWeight)
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("RETRIEVALCTL_EMBEDDING_PROVIDER", "")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "", cfg.Store.EmbeddingProvider)
}

func TestGetUserConfigPath_DefaultsToXDGLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := GetUserConfigPath()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	expected := filepath.Join(home, ".config", "retrievalctl", "config.yaml")
	assert.Equal(t, expected, path)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	customConfig := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", customConfig)

	path := GetUserConfigPath()

	expected := filepath.Join(customConfig, "retrievalctl", "config.yaml")
	assert.Equal(t, expected, path)
}

func TestGetUserConfigDir_ReturnsParentOfConfigPath(t *testing.T) {
	dir := GetUserConfigDir()
	path := GetUserConfigPath()

	assert.Equal(t, filepath.Dir(path), dir)
}

func TestUserConfigExists_ReturnsFalseWhenMissing(t *testing.T) {
	emptyDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", emptyDir)

	assert.False(t, UserConfigExists())
}

func TestUserConfigExists_ReturnsTrueWhenPresent(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	retrievalctlDir := filepath.Join(configDir, "retrievalctl")
	require.NoError(t, os.MkdirAll(retrievalctlDir, 0o755))
	configPath := filepath.Join(retrievalctlDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1"), 0o644))

	assert.True(t, UserConfigExists())
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	retrievalctlDir := filepath.Join(configDir, "retrievalctl")
	require.NoError(t, os.MkdirAll(retrievalctlDir, 0o755))
	userConfig := "version: 1\nstore:\n  ollama_host: http://custom-host:11434\n"
	require.NoError(t, os.WriteFile(filepath.Join(retrievalctlDir, "config.yaml"), []byte(userConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "http://custom-host:11434", cfg.Store.OllamaHost)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	retrievalctlDir := filepath.Join(configDir, "retrievalctl")
	require.NoError(t, os.MkdirAll(retrievalctlDir, 0o755))
	userConfig := "version: 1\nstore:\n  embedding_provider: ollama\n  embedding_model: user-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(retrievalctlDir, "config.yaml"), []byte(userConfig), 0o644))

	projectConfig := "version: 1\nstore:\n  embedding_model: project-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".retrievalctl.yaml"), []byte(projectConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "project-model", cfg.Store.EmbeddingModel)
	assert.Equal(t, "ollama", cfg.Store.EmbeddingProvider)
}

func TestLoad_EnvVarOverridesUserAndProjectConfig(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("RETRIEVALCTL_EMBEDDING_MODEL", "env-model")

	retrievalctlDir := filepath.Join(configDir, "retrievalctl")
	require.NoError(t, os.MkdirAll(retrievalctlDir, 0o755))
	userConfig := "version: 1\nstore:\n  embedding_model: user-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(retrievalctlDir, "config.yaml"), []byte(userConfig), 0o644))

	projectConfig := "version: 1\nstore:\n  embedding_model: project-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".retrievalctl.yaml"), []byte(projectConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Store.EmbeddingModel)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	retrievalctlDir := filepath.Join(configDir, "retrievalctl")
	require.NoError(t, os.MkdirAll(retrievalctlDir, 0o755))
	invalidConfig := "version: 1\nstore:\n  embedding_model: [invalid yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(retrievalctlDir, "config.yaml"), []byte(invalidConfig), 0o644))

	cfg, err := Load(projectDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}

func TestConfig_ToGatewayConfig_AppliesOverridesOntoDefaults(t *testing.T) {
	cfg := NewConfig()
	cfg.LLM.AnthropicAPIKey = "sk-ant-test"
	cfg.LLM.FeatureModels = map[string]string{"rag_rerank": "claude-haiku"}

	gw := cfg.LLM.ToGatewayConfig()

	assert.Equal(t, "sk-ant-test", gw.AnthropicAPIKey)
	assert.Equal(t, "claude-sonnet-4-5-20250929", gw.ClaudeModel)
	assert.NotEmpty(t, gw.Models)
}
