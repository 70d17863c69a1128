// Package config holds all mirrorme configuration. Config is loaded from
// .mirror/config.yaml in the workspace, with environment overrides for
// secrets so API keys never have to live on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mirrorme configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM generation backend
	LLM LLMConfig `yaml:"llm"`

	// Embedding backend
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Safety gate settings
	Safety SafetyConfig `yaml:"safety"`

	// Memory and persistence
	Memory MemoryConfig `yaml:"memory"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the response generation backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, genai
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     string  `yaml:"timeout"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama, genai

	// Ollama
	OllamaEndpoint string `yaml:"ollama_endpoint"` // Default: "http://localhost:11434"
	OllamaModel    string `yaml:"ollama_model"`    // Default: "embeddinggemma"

	// GenAI
	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"` // Default: "gemini-embedding-001"
	TaskType    string `yaml:"task_type"`   // SEMANTIC_SIMILARITY, RETRIEVAL_QUERY, RETRIEVAL_DOCUMENT
}

// SafetyConfig configures the safety gate.
type SafetyConfig struct {
	// Mode: strict, moderate, lenient
	Mode string `yaml:"mode"`

	// RedlineFile is an optional YAML file of extra redline terms,
	// hot-reloaded when it changes.
	RedlineFile string `yaml:"redline_file"`

	// ConsentPlatforms are platforms allowed without per-sender opt-in.
	ConsentPlatforms []string `yaml:"consent_platforms"`

	// MaxEvents bounds the safety event log.
	MaxEvents int `yaml:"max_events"`
}

// MemoryConfig configures persistence and bounded history.
type MemoryConfig struct {
	// DatabasePath is the SQLite file for profile/exemplar/consent storage.
	// Empty disables persistence.
	DatabasePath string `yaml:"database_path"`

	// HistorySize bounds the dispatched-response log.
	HistorySize int `yaml:"history_size"`

	// EmbedConcurrency bounds parallel embedding calls during training.
	EmbedConcurrency int `yaml:"embed_concurrency"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// Default returns sensible defaults.
func Default() *Config {
	return &Config{
		Name:    "mirrorme",
		Version: "1.0.0",
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			Timeout:     "30s",
			MaxTokens:   150,
			Temperature: 0.8,
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "SEMANTIC_SIMILARITY",
		},
		Safety: SafetyConfig{
			Mode:             "strict",
			ConsentPlatforms: []string{"chat", "email", "enterprise-messaging"},
			MaxEvents:        1000,
		},
		Memory: MemoryConfig{
			HistorySize:      1000,
			EmbedConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".mirror", "config.yaml")
}

// Load reads config from the workspace, falling back to defaults for a
// missing file, then applies environment overrides.
func Load(workspace string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config to the workspace, creating .mirror/ if needed.
func (c *Config) Save(workspace string) error {
	dir := filepath.Join(workspace, ".mirror")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(Path(workspace), data, 0644)
}

// applyEnv overlays secrets from the environment. Env vars always win so
// keys checked into config files can be rotated without edits.
func (c *Config) applyEnv() {
	if v := os.Getenv("MIRROR_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("MIRROR_GENAI_API_KEY"); v != "" {
		c.Embedding.GenAIAPIKey = v
	}
	if c.Embedding.GenAIAPIKey == "" {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.Embedding.GenAIAPIKey = v
		}
	}
}

// LLMTimeout parses the configured LLM timeout, defaulting to 30s.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
